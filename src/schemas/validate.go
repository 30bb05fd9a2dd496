package schemas

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateInput(input interface{}) error {
	return validate.Struct(input)
}

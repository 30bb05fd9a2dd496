package schemas

import (
	"github.com/shopspring/decimal"
)

type SetPriceRequest struct {
	Price *decimal.Decimal `json:"price" validate:"required"`
}

type AddSymbolRequest struct {
	Symbol string           `json:"symbol" validate:"required,max=10"`
	Name   string           `json:"name" validate:"max=100"`
	Price  *decimal.Decimal `json:"price" validate:"required"`
}

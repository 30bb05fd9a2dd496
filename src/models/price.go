package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Price struct {
	Symbol    string          `gorm:"primaryKey;column:symbol" json:"symbol"`
	Name      string          `gorm:"column:name" json:"name"`
	Price     decimal.Decimal `gorm:"column:price" json:"price"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Price) TableName() string {
	return "prices"
}

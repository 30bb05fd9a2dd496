package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	AccountID string          `gorm:"primaryKey;column:account_id" json:"account_id"`
	Symbol    string          `gorm:"primaryKey;column:symbol" json:"symbol"`
	Quantity  decimal.Decimal `gorm:"column:quantity" json:"quantity"`
	CostBasis decimal.Decimal `gorm:"column:cost_basis" json:"cost_basis"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}

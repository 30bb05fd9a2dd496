package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID             string              `gorm:"primaryKey;column:id" json:"id"`
	AccountID      string              `gorm:"column:account_id" json:"account_id"`
	Sequence       int64               `gorm:"column:sequence" json:"sequence"`
	Type           string              `gorm:"column:type" json:"type"`
	Symbol         string              `gorm:"column:symbol" json:"symbol"`
	Quantity       decimal.NullDecimal `gorm:"column:quantity" json:"quantity"`
	Price          decimal.NullDecimal `gorm:"column:price" json:"price"`
	Amount         decimal.Decimal     `gorm:"column:amount" json:"amount"`
	BalanceAfter   decimal.Decimal     `gorm:"column:balance_after" json:"balance_after"`
	IdempotencyKey *string             `gorm:"column:idempotency_key" json:"idempotency_key,omitempty"`
	Description    string              `gorm:"column:description" json:"description"`
	CreatedAt      time.Time           `gorm:"column:created_at" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

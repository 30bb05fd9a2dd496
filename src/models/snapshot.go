package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time valuation of an account, taken by the worker.
type Snapshot struct {
	ID          uint            `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AccountID   string          `gorm:"column:account_id" json:"account_id"`
	TakenAt     time.Time       `gorm:"column:taken_at" json:"taken_at"`
	Cash        decimal.Decimal `gorm:"column:cash" json:"cash"`
	MarketValue decimal.Decimal `gorm:"column:market_value" json:"market_value"`
	TotalValue  decimal.Decimal `gorm:"column:total_value" json:"total_value"`
	NetDeposits decimal.Decimal `gorm:"column:net_deposits" json:"net_deposits"`
	ProfitLoss  decimal.Decimal `gorm:"column:profit_loss" json:"profit_loss"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID               string          `gorm:"primaryKey;column:id" json:"id"`
	Owner            string          `gorm:"column:owner" json:"owner"`
	CashBalance      decimal.Decimal `gorm:"column:cash_balance" json:"cash_balance"`
	TotalDeposits    decimal.Decimal `gorm:"column:total_deposits" json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `gorm:"column:total_withdrawals" json:"total_withdrawals"`
	RealizedPnL      decimal.Decimal `gorm:"column:realized_pnl" json:"realized_pnl"`
	Version          int64           `gorm:"column:version" json:"version"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

package schemas

import (
	"time"

	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	Owner          string           `json:"owner" validate:"required,max=100"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit"`
}

type CashRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type TradeRequest struct {
	Symbol   string           `json:"symbol" validate:"required,max=10"`
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}

type HoldingResponse struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

type AccountResponse struct {
	ID               string            `json:"id"`
	Owner            string            `json:"owner"`
	CashBalance      decimal.Decimal   `json:"cash_balance"`
	TotalDeposits    decimal.Decimal   `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal   `json:"total_withdrawals"`
	NetDeposits      decimal.Decimal   `json:"net_deposits"`
	RealizedPnL      decimal.Decimal   `json:"realized_pnl"`
	Version          int64             `json:"version"`
	Holdings         []HoldingResponse `json:"holdings"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type TransactionResponse struct {
	ID             string              `json:"id"`
	AccountID      string              `json:"account_id"`
	Sequence       int64               `json:"sequence"`
	Type           string              `json:"type"`
	Symbol         string              `json:"symbol,omitempty"`
	Quantity       decimal.NullDecimal `json:"quantity"`
	Price          decimal.NullDecimal `json:"price"`
	Amount         decimal.Decimal     `json:"amount"`
	BalanceAfter   decimal.Decimal     `json:"balance_after"`
	Description    string              `json:"description"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	// Replayed is set when the response repeats an earlier request with the
	// same idempotency key.
	Replayed bool `json:"replayed,omitempty"`
}

type TransactionQuery struct {
	Type       string
	Symbol     string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
	Descending bool
}

type TransactionPage struct {
	Items  []TransactionResponse `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

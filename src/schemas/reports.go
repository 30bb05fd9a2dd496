package schemas

import (
	"time"

	"github.com/shopspring/decimal"
)

type HoldingReport struct {
	Symbol               string          `json:"symbol"`
	Name                 string          `json:"name,omitempty"`
	Quantity             decimal.Decimal `json:"quantity"`
	Price                decimal.Decimal `json:"price"`
	MarketValue          decimal.Decimal `json:"market_value"`
	AverageCost          decimal.Decimal `json:"average_cost"`
	CostBasis            decimal.Decimal `json:"cost_basis"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
	Priced               bool            `json:"priced"`
}

type PortfolioSummary struct {
	AccountID         string          `json:"account_id"`
	Owner             string          `json:"owner"`
	Cash              decimal.Decimal `json:"cash"`
	MarketValue       decimal.Decimal `json:"market_value"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal `json:"total_withdrawals"`
	NetDeposits       decimal.Decimal `json:"net_deposits"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
	RealizedPnL       decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL     decimal.Decimal `json:"unrealized_pnl"`
	Holdings          []HoldingReport `json:"holdings"`
	TransactionCount  int64           `json:"transaction_count"`
	AsOf              time.Time       `json:"as_of"`
}

type PerformancePoint struct {
	Date        time.Time       `json:"date"`
	Cash        decimal.Decimal `json:"cash"`
	MarketValue decimal.Decimal `json:"market_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
	NetDeposits decimal.Decimal `json:"net_deposits"`
	ProfitLoss  decimal.Decimal `json:"profit_loss"`
}

type PerformanceQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Interval  string
}

package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type HoldingReport struct {
	Symbol               string
	Quantity             decimal.Decimal
	Price                decimal.Decimal
	MarketValue          decimal.Decimal
	AverageCost          decimal.Decimal
	CostBasis            decimal.Decimal
	UnrealizedPnL        decimal.Decimal
	UnrealizedPnLPercent decimal.Decimal
	// Priced is false when the symbol no longer has a price; such holdings
	// are valued at zero.
	Priced bool
}

type Summary struct {
	AccountID         string
	Owner             string
	Cash              decimal.Decimal
	MarketValue       decimal.Decimal
	TotalValue        decimal.Decimal
	TotalDeposits     decimal.Decimal
	TotalWithdrawals  decimal.Decimal
	NetDeposits       decimal.Decimal
	ProfitLoss        decimal.Decimal
	ProfitLossPercent decimal.Decimal
	RealizedPnL       decimal.Decimal
	UnrealizedPnL     decimal.Decimal
	Holdings          []HoldingReport
	TransactionCount  int64
	AsOf              time.Time
}

// HoldingsReport values every open position at the current price, sorted by
// symbol.
func (a *Account) HoldingsReport(ctx context.Context) ([]HoldingReport, error) {
	a.mu.RLock()
	positions := a.sortedPositions()
	a.mu.RUnlock()
	return a.value(ctx, positions)
}

func (a *Account) value(ctx context.Context, positions []Position) ([]HoldingReport, error) {
	reports := make([]HoldingReport, 0, len(positions))
	for _, p := range positions {
		r := HoldingReport{
			Symbol:      p.Symbol,
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost(),
			CostBasis:   p.CostBasis,
			Price:       decimal.Zero,
			MarketValue: decimal.Zero,
		}
		price, err := a.sharePrice(ctx, p.Symbol)
		switch {
		case err == nil:
			r.Price = price
			r.MarketValue = price.Mul(p.Quantity)
			r.Priced = true
		case errors.Is(err, ErrInvalidSymbol):
		default:
			return nil, err
		}
		r.UnrealizedPnL = r.MarketValue.Sub(p.CostBasis)
		r.UnrealizedPnLPercent = percentOf(r.UnrealizedPnL, p.CostBasis)
		reports = append(reports, r)
	}
	return reports, nil
}

// PortfolioValue is cash plus the market value of all holdings.
func (a *Account) PortfolioValue(ctx context.Context) (decimal.Decimal, error) {
	s, err := a.Summary(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.TotalValue, nil
}

// ProfitLoss is the portfolio value minus net deposits.
func (a *Account) ProfitLoss(ctx context.Context) (decimal.Decimal, error) {
	s, err := a.Summary(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.ProfitLoss, nil
}

func (a *Account) Summary(ctx context.Context) (*Summary, error) {
	a.mu.RLock()
	positions := a.sortedPositions()
	s := &Summary{
		AccountID:        a.id,
		Owner:            a.owner,
		Cash:             a.cash,
		TotalDeposits:    a.totalDeposits,
		TotalWithdrawals: a.totalWithdrawals,
		NetDeposits:      a.totalDeposits.Sub(a.totalWithdrawals),
		RealizedPnL:      a.realized,
		TransactionCount: a.version,
		AsOf:             a.now(),
	}
	a.mu.RUnlock()

	holdings, err := a.value(ctx, positions)
	if err != nil {
		return nil, err
	}
	s.Holdings = holdings

	s.MarketValue = decimal.Zero
	s.UnrealizedPnL = decimal.Zero
	for _, h := range holdings {
		s.MarketValue = s.MarketValue.Add(h.MarketValue)
		s.UnrealizedPnL = s.UnrealizedPnL.Add(h.UnrealizedPnL)
	}
	s.TotalValue = s.Cash.Add(s.MarketValue)
	s.ProfitLoss = s.TotalValue.Sub(s.NetDeposits)
	s.ProfitLossPercent = percentOf(s.ProfitLoss, s.NetDeposits)
	return s, nil
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

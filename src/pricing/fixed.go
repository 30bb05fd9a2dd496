package pricing

import (
	"context"
	"fmt"
	"sync"

	"tradeledger/src/ledger"

	"github.com/shopspring/decimal"
)

// FixedSource is an in-memory price table.
type FixedSource struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

var _ ledger.PriceSource = (*FixedSource)(nil)

// NewFixedSource builds a table from quotes, or from DefaultQuotes when none
// are given.
func NewFixedSource(quotes ...Quote) *FixedSource {
	if len(quotes) == 0 {
		quotes = DefaultQuotes()
	}
	f := &FixedSource{prices: make(map[string]decimal.Decimal, len(quotes))}
	for _, q := range quotes {
		f.prices[ledger.NormalizeSymbol(q.Symbol)] = q.Price
	}
	return f
}

func (f *FixedSource) SharePrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	price, ok := f.prices[ledger.NormalizeSymbol(symbol)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ledger.ErrInvalidSymbol, symbol)
	}
	return price, nil
}

// Set changes or adds the price of a symbol.
func (f *FixedSource) Set(symbol string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[ledger.NormalizeSymbol(symbol)] = price
}

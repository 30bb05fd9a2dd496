package pricing

import (
	"fmt"
	"time"

	"tradeledger/src/config"
	"tradeledger/src/ledger"
	"tradeledger/src/models"
	"tradeledger/src/utils"

	"github.com/shopspring/decimal"
)

// Quote is the current price of a symbol together with its company name.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DefaultQuotes is the fixed price table used when none is configured.
func DefaultQuotes() []Quote {
	return []Quote{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("150.00")},
		{Symbol: "AMD", Name: "Advanced Micro Devices Inc.", Price: decimal.RequireFromString("100.00")},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Price: decimal.RequireFromString("120.00")},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: decimal.RequireFromString("130.00")},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Price: decimal.RequireFromString("300.50")},
		{Symbol: "NFLX", Name: "Netflix Inc.", Price: decimal.RequireFromString("500.00")},
		{Symbol: "TSLA", Name: "Tesla Inc.", Price: decimal.RequireFromString("195.00")},
		{Symbol: "XOM", Name: "Exxon Mobil Corp.", Price: decimal.RequireFromString("110.00")},
	}
}

// QuotesFromConfig reads the symbols file and the inline symbol list. Inline
// entries win over file rows for the same symbol. With neither configured the
// default table is returned.
func QuotesFromConfig(cfg config.PricingConfig) ([]Quote, error) {
	bySymbol := map[string]Quote{}
	var order []string
	add := func(symbol, name, price string) error {
		q, err := NewQuote(symbol, name, price)
		if err != nil {
			return err
		}
		if _, ok := bySymbol[q.Symbol]; !ok {
			order = append(order, q.Symbol)
		}
		bySymbol[q.Symbol] = q
		return nil
	}

	if cfg.SymbolsFile != "" {
		rows, err := utils.ReadCSVRecords(cfg.SymbolsFile, 3)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if err := add(row[0], row[1], row[2]); err != nil {
				return nil, fmt.Errorf("%s: %w", cfg.SymbolsFile, err)
			}
		}
	}
	for _, s := range cfg.Symbols {
		if err := add(s.Symbol, s.Name, s.Price); err != nil {
			return nil, err
		}
	}

	if len(order) == 0 {
		return DefaultQuotes(), nil
	}
	quotes := make([]Quote, 0, len(order))
	for _, sym := range order {
		quotes = append(quotes, bySymbol[sym])
	}
	return quotes, nil
}

// NewQuote validates and normalizes a symbol and its price.
func NewQuote(symbol, name, price string) (Quote, error) {
	symbol = ledger.NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("%w: empty symbol", ledger.ErrInvalidSymbol)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: malformed price for %s", ledger.ErrInvalidAmount, symbol)
	}
	if !p.IsPositive() || !ledger.InBounds(p) {
		return Quote{}, fmt.Errorf("%w: price for %s must be positive and in range", ledger.ErrInvalidAmount, symbol)
	}
	return Quote{Symbol: symbol, Name: name, Price: p}, nil
}

func quoteFromModel(p models.Price) Quote {
	return Quote{Symbol: p.Symbol, Name: p.Name, Price: p.Price, UpdatedAt: p.UpdatedAt}
}

func (q Quote) toModel() models.Price {
	return models.Price{Symbol: q.Symbol, Name: q.Name, Price: q.Price, UpdatedAt: q.UpdatedAt}
}

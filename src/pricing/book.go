package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tradeledger/src/ledger"
	"tradeledger/src/models"
	"tradeledger/src/repositories"
	"tradeledger/src/utils"

	"github.com/shopspring/decimal"
)

var ErrSymbolExists = errors.New("symbol already listed")

// Book is the stored price table used by the service. Reads go through the
// cache; writes invalidate it.
type Book struct {
	repo  repositories.PriceRepository
	cache QuoteCache
}

var _ ledger.PriceSource = (*Book)(nil)

// NewBook returns a book over repo. A nil cache disables caching.
func NewBook(repo repositories.PriceRepository, cache QuoteCache) *Book {
	return &Book{repo: repo, cache: cache}
}

// Seed stores the quotes whose symbols are not listed yet. Existing prices are
// kept so manual changes survive restarts.
func (b *Book) Seed(ctx context.Context, quotes []Quote) error {
	rows := make([]models.Price, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, q.toModel())
	}
	if err := b.repo.CreateMissing(ctx, rows); err != nil {
		return fmt.Errorf("failed to seed prices: %w", err)
	}
	return b.invalidate(ctx)
}

func (b *Book) SharePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := b.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}

// Quote returns the stock info of a listed symbol.
func (b *Book) Quote(ctx context.Context, symbol string) (Quote, error) {
	table, err := b.table(ctx)
	if err != nil {
		return Quote{}, err
	}
	q, ok := table[ledger.NormalizeSymbol(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ledger.ErrInvalidSymbol, symbol)
	}
	return q, nil
}

// Quotes returns every listed symbol sorted alphabetically.
func (b *Book) Quotes(ctx context.Context) ([]Quote, error) {
	table, err := b.table(ctx)
	if err != nil {
		return nil, err
	}
	quotes := make([]Quote, 0, len(table))
	for _, q := range table {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
	return quotes, nil
}

// SetPrice changes the price of a listed symbol.
func (b *Book) SetPrice(ctx context.Context, symbol string, price decimal.Decimal) (Quote, error) {
	current, err := b.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if !price.IsPositive() || !ledger.InBounds(price) {
		return Quote{}, fmt.Errorf("%w: price for %s must be positive and in range", ledger.ErrInvalidAmount, current.Symbol)
	}

	row := current.toModel()
	row.Price = price
	if err := b.repo.Upsert(ctx, &row); err != nil {
		return Quote{}, err
	}
	if err := b.invalidate(ctx); err != nil {
		return Quote{}, err
	}
	return quoteFromModel(row), nil
}

// AddSymbol lists a new symbol.
func (b *Book) AddSymbol(ctx context.Context, symbol, name string, price decimal.Decimal) (Quote, error) {
	if !ledger.InBounds(price) {
		return Quote{}, fmt.Errorf("%w: price for %s is out of range", ledger.ErrInvalidAmount, ledger.NormalizeSymbol(symbol))
	}
	q, err := NewQuote(symbol, name, price.String())
	if err != nil {
		return Quote{}, err
	}
	if _, err := b.repo.GetBySymbol(ctx, q.Symbol); err == nil {
		return Quote{}, fmt.Errorf("%w: %s", ErrSymbolExists, q.Symbol)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return Quote{}, err
	}

	row := q.toModel()
	if err := b.repo.Create(ctx, &row); err != nil {
		return Quote{}, err
	}
	if err := b.invalidate(ctx); err != nil {
		return Quote{}, err
	}
	return quoteFromModel(row), nil
}

func (b *Book) table(ctx context.Context) (map[string]Quote, error) {
	logger := utils.LoggerFromContext(ctx)
	if b.cache != nil {
		table, ok, err := b.cache.GetQuotes(ctx)
		if err != nil {
			logger.WithError(err).Warn("Quote cache read failed")
		} else if ok {
			return table, nil
		}
	}

	rows, err := b.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	table := make(map[string]Quote, len(rows))
	for _, row := range rows {
		table[row.Symbol] = quoteFromModel(row)
	}

	if b.cache != nil {
		if err := b.cache.SetQuotes(ctx, table); err != nil {
			logger.WithError(err).Warn("Quote cache write failed")
		}
	}
	return table, nil
}

func (b *Book) invalidate(ctx context.Context) error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Invalidate(ctx)
}

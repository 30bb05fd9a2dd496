package pricing_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tradeledger/src/config"
	"tradeledger/src/ledger"
	"tradeledger/src/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesFromConfig(t *testing.T) {
	t.Run("should fall back to the default table", func(t *testing.T) {
		quotes, err := pricing.QuotesFromConfig(config.PricingConfig{})
		require.NoError(t, err)
		assert.Equal(t, pricing.DefaultQuotes(), quotes)
	})

	t.Run("should merge the symbols file with inline symbols", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "symbols.csv")
		content := "symbol,name,price\naapl,Apple Inc.,150.00\nIBM,IBM Corp.,180\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		quotes, err := pricing.QuotesFromConfig(config.PricingConfig{
			SymbolsFile: path,
			Symbols: []config.SymbolConfig{
				{Symbol: "AAPL", Name: "Apple", Price: "155.5"},
				{Symbol: "nvda", Name: "NVIDIA", Price: "900"},
			},
		})
		require.NoError(t, err)
		require.Len(t, quotes, 3)
		assert.Equal(t, "AAPL", quotes[0].Symbol)
		assert.True(t, quotes[0].Price.Equal(decimal.RequireFromString("155.5")))
		assert.Equal(t, "IBM", quotes[1].Symbol)
		assert.Equal(t, "NVDA", quotes[2].Symbol)
	})

	t.Run("should reject invalid prices", func(t *testing.T) {
		_, err := pricing.QuotesFromConfig(config.PricingConfig{
			Symbols: []config.SymbolConfig{{Symbol: "AAPL", Price: "-1"}},
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

		_, err = pricing.QuotesFromConfig(config.PricingConfig{
			Symbols: []config.SymbolConfig{{Symbol: "AAPL", Price: "abc"}},
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

		_, err = pricing.QuotesFromConfig(config.PricingConfig{
			Symbols: []config.SymbolConfig{{Symbol: "AAPL", Price: "1e-10000000"}},
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})

	t.Run("should fail on a missing symbols file", func(t *testing.T) {
		_, err := pricing.QuotesFromConfig(config.PricingConfig{SymbolsFile: "does-not-exist.csv"})
		assert.Error(t, err)
	})
}

func TestFixedSource(t *testing.T) {
	ctx := context.Background()
	source := pricing.NewFixedSource()

	price, err := source.SharePrice(ctx, "msft")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("300.50")))

	_, err = source.SharePrice(ctx, "NOPE")
	assert.ErrorIs(t, err, ledger.ErrInvalidSymbol)

	source.Set("nope", decimal.NewFromInt(3))
	price, err = source.SharePrice(ctx, "NOPE")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(3)))
}

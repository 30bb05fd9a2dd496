package ledger_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"tradeledger/src/ledger"
	"tradeledger/src/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newAccount(t *testing.T, deposit string) (*ledger.Account, *pricing.FixedSource) {
	t.Helper()
	prices := pricing.NewFixedSource()
	opts := []ledger.Option{}
	if deposit != "" {
		opts = append(opts, ledger.WithInitialDeposit(d(deposit)))
	}
	acc, err := ledger.New("acc-1", "alice", prices, opts...)
	require.NoError(t, err)
	return acc, prices
}

func TestAccountCash(t *testing.T) {
	t.Run("should record the initial deposit as a transaction", func(t *testing.T) {
		acc, _ := newAccount(t, "1000")

		assert.True(t, acc.Cash().Equal(d("1000")))
		txs := acc.Transactions()
		require.Len(t, txs, 1)
		assert.Equal(t, ledger.Deposit, txs[0].Type)
		assert.Equal(t, int64(1), txs[0].Sequence)
		assert.Equal(t, "Deposit 1000.00", txs[0].Description())
	})

	t.Run("should open an empty account without transactions", func(t *testing.T) {
		acc, _ := newAccount(t, "")

		assert.True(t, acc.Cash().IsZero())
		assert.Empty(t, acc.Transactions())
		assert.Equal(t, int64(0), acc.Version())
	})

	t.Run("should reject a non positive initial deposit", func(t *testing.T) {
		_, err := ledger.New("acc-1", "alice", nil, ledger.WithInitialDeposit(d("-5")))
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})

	t.Run("should reject invalid deposit amounts", func(t *testing.T) {
		acc, _ := newAccount(t, "100")
		for _, amount := range []string{"0", "-1", "0.00001"} {
			_, err := acc.Deposit(d(amount))
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount, amount)
		}
		assert.True(t, acc.Cash().Equal(d("100")))
		assert.Len(t, acc.Transactions(), 1)
	})

	t.Run("should refuse amounts with runaway exponents", func(t *testing.T) {
		acc, _ := newAccount(t, "100")
		for _, body := range []string{`{"amount":1e-10000000}`, `{"amount":1e10000000}`, `{"amount":1.00000000000000000001}`} {
			var req struct {
				Amount decimal.Decimal `json:"amount"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &req))

			start := time.Now()
			_, err := acc.Deposit(req.Amount)
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount, body)
			assert.Less(t, len(err.Error()), 200)
			assert.Less(t, time.Since(start), 100*time.Millisecond)
		}
		assert.True(t, acc.Cash().Equal(d("100")))
	})

	t.Run("should bound scale and magnitude", func(t *testing.T) {
		assert.True(t, ledger.InBounds(d("1.50000")))
		assert.True(t, ledger.InBounds(d("999999999999999")))
		assert.False(t, ledger.InBounds(d("1000000000000000")))
		assert.False(t, ledger.InBounds(decimal.New(1, -19)))
		assert.False(t, ledger.InBounds(decimal.New(1, 16)))
	})

	t.Run("should withdraw up to the balance", func(t *testing.T) {
		acc, _ := newAccount(t, "100")

		tx, err := acc.Withdraw(d("100"))
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(d("-100")))
		assert.True(t, tx.BalanceAfter.IsZero())
		assert.Equal(t, "Withdraw 100.00", tx.Description())
		assert.True(t, acc.NetDeposits().IsZero())
	})

	t.Run("should refuse to overdraw", func(t *testing.T) {
		acc, _ := newAccount(t, "100")

		_, err := acc.Withdraw(d("100.01"))
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.True(t, acc.Cash().Equal(d("100")))
		assert.Equal(t, int64(1), acc.Version())
	})
}

func TestAccountTrades(t *testing.T) {
	ctx := context.Background()

	t.Run("should buy at the current price", func(t *testing.T) {
		acc, _ := newAccount(t, "10000")

		tx, err := acc.Buy(ctx, " aapl ", d("10"))
		require.NoError(t, err)
		assert.Equal(t, "AAPL", tx.Symbol)
		assert.True(t, tx.Price.Decimal.Equal(d("150")))
		assert.True(t, tx.Amount.Equal(d("-1500")))
		assert.Equal(t, "Buy 10 AAPL @ 150.00", tx.Description())
		assert.True(t, acc.Cash().Equal(d("8500")))
		assert.True(t, acc.Holdings()["AAPL"].Equal(d("10")))
	})

	t.Run("should refuse a buy it cannot afford", func(t *testing.T) {
		acc, _ := newAccount(t, "100")

		_, err := acc.Buy(ctx, "AAPL", d("1"))
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.Empty(t, acc.Holdings())
		assert.True(t, acc.Cash().Equal(d("100")))
	})

	t.Run("should refuse unknown symbols", func(t *testing.T) {
		acc, _ := newAccount(t, "100")

		_, err := acc.Buy(ctx, "NOPE", d("1"))
		assert.ErrorIs(t, err, ledger.ErrInvalidSymbol)
		_, err = acc.Buy(ctx, "  ", d("1"))
		assert.ErrorIs(t, err, ledger.ErrInvalidSymbol)
	})

	t.Run("should refuse to sell more than held", func(t *testing.T) {
		acc, _ := newAccount(t, "10000")
		_, err := acc.Buy(ctx, "AAPL", d("5"))
		require.NoError(t, err)

		_, err = acc.Sell(ctx, "AAPL", d("6"))
		assert.ErrorIs(t, err, ledger.ErrInsufficientShares)
		_, err = acc.Sell(ctx, "MSFT", d("1"))
		assert.ErrorIs(t, err, ledger.ErrInsufficientShares)
		assert.True(t, acc.Holdings()["AAPL"].Equal(d("5")))
	})

	t.Run("should drop a position sold to zero", func(t *testing.T) {
		acc, _ := newAccount(t, "10000")
		_, err := acc.Buy(ctx, "AAPL", d("5"))
		require.NoError(t, err)

		_, err = acc.Sell(ctx, "AAPL", d("5"))
		require.NoError(t, err)
		assert.NotContains(t, acc.Holdings(), "AAPL")
		assert.Empty(t, acc.Positions())
		assert.True(t, acc.Cash().Equal(d("10000")))
	})

	t.Run("should release cost basis proportionally on partial sells", func(t *testing.T) {
		acc, prices := newAccount(t, "10000")
		_, err := acc.Buy(ctx, "AAPL", d("10"))
		require.NoError(t, err)
		prices.Set("AAPL", d("200"))
		_, err = acc.Buy(ctx, "AAPL", d("10"))
		require.NoError(t, err)

		positions := acc.Positions()
		require.Len(t, positions, 1)
		assert.True(t, positions[0].CostBasis.Equal(d("3500")))
		assert.True(t, positions[0].AverageCost().Equal(d("175")))

		prices.Set("AAPL", d("180"))
		_, err = acc.Sell(ctx, "AAPL", d("4"))
		require.NoError(t, err)

		positions = acc.Positions()
		assert.True(t, positions[0].Quantity.Equal(d("16")))
		assert.True(t, positions[0].CostBasis.Equal(d("2800")))
		// 4 * (180 - 175)
		assert.True(t, acc.RealizedPnL().Equal(d("20")))
	})

	t.Run("should accept fractional quantities up to four decimals", func(t *testing.T) {
		acc, _ := newAccount(t, "1000")

		_, err := acc.Buy(ctx, "AAPL", d("0.5"))
		require.NoError(t, err)
		_, err = acc.Buy(ctx, "AAPL", d("0.00001"))
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		assert.True(t, acc.Holdings()["AAPL"].Equal(d("0.5")))
	})
}

func TestAccountTransactionLog(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := 0
	acc, err := ledger.New("acc-1", "alice", pricing.NewFixedSource(),
		ledger.WithInitialDeposit(d("1000")),
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithIDGenerator(func() string { ids++; return fmt.Sprintf("tx-%d", ids) }),
	)
	require.NoError(t, err)

	_, err = acc.Buy(ctx, "AMD", d("2"), ledger.IdempotencyKey("k-1"))
	require.NoError(t, err)
	_, err = acc.Withdraw(d("50"))
	require.NoError(t, err)

	txs := acc.Transactions()
	require.Len(t, txs, 3)
	for i, tx := range txs {
		assert.Equal(t, int64(i+1), tx.Sequence)
		assert.Equal(t, fmt.Sprintf("tx-%d", i+1), tx.ID)
		assert.Equal(t, "acc-1", tx.AccountID)
		assert.Equal(t, now, tx.Timestamp)
	}
	assert.Equal(t, "k-1", txs[1].IdempotencyKey)
	assert.True(t, txs[1].BalanceAfter.Equal(d("800")))
	assert.True(t, txs[2].BalanceAfter.Equal(d("750")))

	t.Run("should return a copy of the log", func(t *testing.T) {
		txs[0].Amount = d("1")
		assert.True(t, acc.Transactions()[0].Amount.Equal(d("1000")))
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	acc, prices := newAccount(t, "5000")
	_, err := acc.Buy(ctx, "MSFT", d("3"))
	require.NoError(t, err)

	restored := ledger.Restore(acc.State(), prices)

	assert.Equal(t, acc.State(), restored.State())
	assert.Empty(t, restored.Transactions())

	tx, err := restored.Deposit(d("10"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), tx.Sequence)
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccount(t, "100000")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = acc.Buy(ctx, "AMD", d("1"))
			_, _ = acc.Deposit(d("1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(41), acc.Version())
	assert.True(t, acc.Holdings()["AMD"].Equal(d("20")))
	assert.True(t, acc.Cash().Equal(d("98020")))
}

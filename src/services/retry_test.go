package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tradeledger/src/events"
	"tradeledger/src/models"
	"tradeledger/src/repositories"
	"tradeledger/src/schemas"
	"tradeledger/src/services"
	"tradeledger/src/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// staleAccounts loses every version race.
type staleAccounts struct {
	repositories.AccountRepository
	updates atomic.Int32
}

func (r *staleAccounts) UpdateBalances(_ context.Context, _ *models.Account, _ int64, _ *gorm.DB) error {
	r.updates.Add(1)
	return repositories.ErrStaleAccount
}

func TestStaleVersionRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("should retry commits raced by another process", func(t *testing.T) {
		svc, _, db := setup(t)
		other, cleanup, err := services.NewServices(ctx, testutil.Config(t), db, events.NoopPublisher{})
		require.NoError(t, err)
		t.Cleanup(cleanup)
		account := openAccount(t, svc, "100")

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			target := svc
			if i%2 == 1 {
				target = other
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := target.Accounts.Deposit(ctx, account.ID, d("1"), ""); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := svc.Accounts.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(9), stored.Version)
		assert.True(t, stored.CashBalance.Equal(d("108")))

		page, err := svc.Accounts.ListTransactions(ctx, account.ID, schemas.TransactionQuery{})
		require.NoError(t, err)
		require.Len(t, page.Items, 9)
		for i, item := range page.Items {
			assert.Equal(t, int64(i+1), item.Sequence)
		}
	})

	t.Run("should give up after the last retry", func(t *testing.T) {
		svc, _, db := setup(t)
		account := openAccount(t, svc, "100")

		accounts := &staleAccounts{AccountRepository: repositories.NewAccountRepository(db)}
		stale := services.NewAccountService(
			db,
			accounts,
			repositories.NewHoldingRepository(db),
			repositories.NewTransactionRepository(db),
			svc.Prices,
			nil,
		)

		_, err := stale.Deposit(ctx, account.ID, d("5"), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, repositories.ErrStaleAccount))
		assert.Equal(t, int32(6), accounts.updates.Load())

		stored, err := svc.Accounts.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
		assert.True(t, stored.CashBalance.Equal(d("100")))
	})
}

// stalledPublisher blocks until its context ends, like a writer whose broker
// is down.
type stalledPublisher struct {
	calls atomic.Int32
}

func (p *stalledPublisher) Publish(ctx context.Context, _ events.TransactionCompleted) error {
	p.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestPublishTimeout(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config(t)
	cfg.Events.PublishTimeout = 50 * time.Millisecond
	publisher := &stalledPublisher{}
	svc, cleanup, err := services.NewServices(ctx, cfg, testutil.SetupTestDB(t), publisher)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	account, err := svc.Accounts.OpenAccount(ctx, "alice", d("10"))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.Accounts.Deposit(ctx, account.ID, d("1"), "")
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(4), publisher.calls.Load())

	stored, err := svc.Accounts.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Version)
}

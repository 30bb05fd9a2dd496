package services

import (
	"context"
	"sync"
	"time"

	"tradeledger/src/models"
	"tradeledger/src/repositories"
	"tradeledger/src/utils"

	"github.com/sourcegraph/conc/pool"
)

type SnapshotServiceI interface {
	SnapshotAccount(ctx context.Context, accountID string) (*models.Snapshot, error)
	SnapshotAll(ctx context.Context) (int, []string, error)
}

// SnapshotService records point-in-time valuations used by the performance
// history.
type SnapshotService struct {
	accountRepo  repositories.AccountRepository
	snapshotRepo repositories.SnapshotRepository
	accounts     AccountLoader
	concurrency  int
	now          func() time.Time
}

var _ SnapshotServiceI = (*SnapshotService)(nil)

func NewSnapshotService(
	accountRepo repositories.AccountRepository,
	snapshotRepo repositories.SnapshotRepository,
	accounts AccountLoader,
	concurrency int,
) *SnapshotService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SnapshotService{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		accounts:     accounts,
		concurrency:  concurrency,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (ss *SnapshotService) SnapshotAccount(ctx context.Context, accountID string) (*models.Snapshot, error) {
	acc, err := ss.accounts.LoadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary, err := acc.Summary(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		AccountID:   summary.AccountID,
		TakenAt:     ss.now(),
		Cash:        summary.Cash,
		MarketValue: summary.MarketValue,
		TotalValue:  summary.TotalValue,
		NetDeposits: summary.NetDeposits,
		ProfitLoss:  summary.ProfitLoss,
	}
	if err := ss.snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SnapshotAll values every account. Failures of single accounts are logged and
// reported by id; the returned error is only set when accounts can't be listed.
func (ss *SnapshotService) SnapshotAll(ctx context.Context) (int, []string, error) {
	logger := utils.LoggerFromContext(ctx)

	accounts, err := ss.accountRepo.GetAll(ctx)
	if err != nil {
		return 0, nil, err
	}

	var mu sync.Mutex
	failed := []string{}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(ss.concurrency)
	for _, a := range accounts {
		accountID := a.ID
		p.Go(func(ctx context.Context) error {
			if _, err := ss.SnapshotAccount(ctx, accountID); err != nil {
				logger.WithError(err).WithField("account_id", accountID).Error("Failed to snapshot account")
				mu.Lock()
				failed = append(failed, accountID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return len(accounts), failed, err
	}

	logger.WithField("accounts", len(accounts)).WithField("failed", len(failed)).Info("Snapshots taken")
	return len(accounts), failed, nil
}

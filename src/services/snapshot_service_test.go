package services_test

import (
	"context"
	"testing"

	"tradeledger/src/repositories"
	"tradeledger/src/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService(t *testing.T) {
	ctx := context.Background()
	svc, _, db := setup(t)
	first := openAccount(t, svc, "1000")
	second := openAccount(t, svc, "2000")
	_, err := svc.Accounts.Buy(ctx, second.ID, "MSFT", d("2"), "")
	require.NoError(t, err)

	repo := repositories.NewSnapshotRepository(db)

	t.Run("should value a single account", func(t *testing.T) {
		snapshot, err := svc.Snapshots.SnapshotAccount(ctx, second.ID)
		require.NoError(t, err)
		assert.True(t, snapshot.Cash.Equal(d("1399")))
		assert.True(t, snapshot.MarketValue.Equal(d("601")))
		assert.True(t, snapshot.TotalValue.Equal(d("2000")))
		assert.True(t, snapshot.ProfitLoss.IsZero())

		latest, err := repo.GetLatest(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, snapshot.ID, latest.ID)
	})

	t.Run("should value every account", func(t *testing.T) {
		count, failed, err := svc.Snapshots.SnapshotAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Empty(t, failed)

		latest, err := repo.GetLatest(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, latest.TotalValue.Equal(d("1000")))
	})

	t.Run("should fail for unknown accounts", func(t *testing.T) {
		_, err := svc.Snapshots.SnapshotAccount(ctx, "missing")
		assert.ErrorIs(t, err, services.ErrAccountNotFound)
	})
}

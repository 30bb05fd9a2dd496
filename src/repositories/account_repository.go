package repositories

import (
	"context"
	"time"

	"tradeledger/src/models"

	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account, tx *gorm.DB) error
	GetByID(ctx context.Context, id string, tx *gorm.DB) (*models.Account, error)
	GetAll(ctx context.Context) ([]models.Account, error)
	UpdateBalances(ctx context.Context, a *models.Account, expectedVersion int64, tx *gorm.DB) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, a *models.Account, tx *gorm.DB) error {
	return conn(r.db, tx).WithContext(ctx).Create(a).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id string, tx *gorm.DB) (*models.Account, error) {
	var a models.Account
	if err := conn(r.db, tx).WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *accountRepo) GetAll(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&accounts).Error
	return accounts, err
}

// UpdateBalances writes the balances and version of a, provided the stored
// version still equals expectedVersion. Otherwise ErrStaleAccount is returned
// and nothing is written.
func (r *accountRepo) UpdateBalances(ctx context.Context, a *models.Account, expectedVersion int64, tx *gorm.DB) error {
	a.UpdatedAt = time.Now().UTC()
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND version = ?", a.ID, expectedVersion).
		Updates(map[string]interface{}{
			"cash_balance":      a.CashBalance,
			"total_deposits":    a.TotalDeposits,
			"total_withdrawals": a.TotalWithdrawals,
			"realized_pnl":      a.RealizedPnL,
			"version":           a.Version,
			"updated_at":        a.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleAccount
	}
	return nil
}

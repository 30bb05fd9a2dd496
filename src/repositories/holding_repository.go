package repositories

import (
	"context"
	"time"

	"tradeledger/src/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HoldingRepository interface {
	GetByAccountID(ctx context.Context, accountID string, tx *gorm.DB) ([]models.Holding, error)
	Upsert(ctx context.Context, h *models.Holding, tx *gorm.DB) error
	Delete(ctx context.Context, accountID, symbol string, tx *gorm.DB) error
}

type holdingRepo struct {
	db *gorm.DB
}

func NewHoldingRepository(db *gorm.DB) HoldingRepository {
	return &holdingRepo{db: db}
}

func (r *holdingRepo) GetByAccountID(ctx context.Context, accountID string, tx *gorm.DB) ([]models.Holding, error) {
	var holdings []models.Holding
	err := conn(r.db, tx).WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&holdings).Error
	return holdings, err
}

func (r *holdingRepo) Upsert(ctx context.Context, h *models.Holding, tx *gorm.DB) error {
	h.UpdatedAt = time.Now().UTC()
	return conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "cost_basis", "updated_at"}),
		}).
		Create(h).Error
}

func (r *holdingRepo) Delete(ctx context.Context, accountID, symbol string, tx *gorm.DB) error {
	return conn(r.db, tx).WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Delete(&models.Holding{}).Error
}

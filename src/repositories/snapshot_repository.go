package repositories

import (
	"context"
	"time"

	"tradeledger/src/models"

	"gorm.io/gorm"
)

type SnapshotRepository interface {
	Create(ctx context.Context, s *models.Snapshot) error
	GetByAccountID(ctx context.Context, accountID string, startDate, endDate time.Time) ([]models.Snapshot, error)
	GetLatest(ctx context.Context, accountID string) (*models.Snapshot, error)
}

type snapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Create(ctx context.Context, s *models.Snapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *snapshotRepo) GetByAccountID(ctx context.Context, accountID string, startDate, endDate time.Time) ([]models.Snapshot, error) {
	var snapshots []models.Snapshot
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND taken_at >= ? AND taken_at <= ?", accountID, startDate.UTC(), endDate.UTC()).
		Order("taken_at ASC, id ASC").
		Find(&snapshots).Error
	return snapshots, err
}

func (r *snapshotRepo) GetLatest(ctx context.Context, accountID string) (*models.Snapshot, error) {
	var s models.Snapshot
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("taken_at DESC, id DESC").
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

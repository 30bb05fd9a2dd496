package repositories

import (
	"context"
	"time"

	"tradeledger/src/models"

	"gorm.io/gorm"
)

type TransactionFilter struct {
	Type      string
	Types     []string
	Symbol    string
	StartDate *time.Time
	EndDate   *time.Time
	// Limit <= 0 means no limit.
	Limit      int
	Offset     int
	Descending bool
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction, tx *gorm.DB) error
	GetByID(ctx context.Context, accountID, id string) (*models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, accountID, key string, tx *gorm.DB) (*models.Transaction, error)
	GetByAccountID(ctx context.Context, accountID string, filter TransactionFilter) ([]models.Transaction, error)
	CountByAccountID(ctx context.Context, accountID string, filter TransactionFilter) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *models.Transaction, tx *gorm.DB) error {
	return conn(r.db, tx).WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) GetByID(ctx context.Context, accountID, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).First(&t, "account_id = ? AND id = ?", accountID, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *transactionRepo) GetByIdempotencyKey(ctx context.Context, accountID, key string, tx *gorm.DB) (*models.Transaction, error) {
	var t models.Transaction
	err := conn(r.db, tx).WithContext(ctx).First(&t, "account_id = ? AND idempotency_key = ?", accountID, key).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *transactionRepo) GetByAccountID(ctx context.Context, accountID string, filter TransactionFilter) ([]models.Transaction, error) {
	order := "sequence ASC"
	if filter.Descending {
		order = "sequence DESC"
	}
	q := r.filtered(ctx, accountID, filter).Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) CountByAccountID(ctx context.Context, accountID string, filter TransactionFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, accountID, filter).Model(&models.Transaction{}).Count(&count).Error
	return count, err
}

func (r *transactionRepo) filtered(ctx context.Context, accountID string, filter TransactionFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if len(filter.Types) > 0 {
		q = q.Where("type IN ?", filter.Types)
	}
	if filter.Symbol != "" {
		q = q.Where("symbol = ?", filter.Symbol)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", filter.EndDate.UTC())
	}
	return q
}

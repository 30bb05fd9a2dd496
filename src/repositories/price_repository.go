package repositories

import (
	"context"
	"time"

	"tradeledger/src/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository interface {
	GetAll(ctx context.Context) ([]models.Price, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Price, error)
	Create(ctx context.Context, p *models.Price) error
	Upsert(ctx context.Context, p *models.Price) error
	// CreateMissing inserts the prices whose symbol is not stored yet and
	// leaves existing rows untouched.
	CreateMissing(ctx context.Context, prices []models.Price) error
}

type priceRepo struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepo{db: db}
}

func (r *priceRepo) GetAll(ctx context.Context) ([]models.Price, error) {
	var prices []models.Price
	err := r.db.WithContext(ctx).Order("symbol ASC").Find(&prices).Error
	return prices, err
}

func (r *priceRepo) GetBySymbol(ctx context.Context, symbol string) (*models.Price, error) {
	var p models.Price
	if err := r.db.WithContext(ctx).First(&p, "symbol = ?", symbol).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *priceRepo) Create(ctx context.Context, p *models.Price) error {
	p.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *priceRepo) Upsert(ctx context.Context, p *models.Price) error {
	p.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "updated_at"}),
		}).
		Create(p).Error
}

func (r *priceRepo) CreateMissing(ctx context.Context, prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range prices {
		prices[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&prices).Error
}

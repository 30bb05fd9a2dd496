package services

import (
	"context"
	"fmt"

	"tradeledger/src/config"
	"tradeledger/src/events"
	"tradeledger/src/pricing"
	"tradeledger/src/repositories"
	redis_utils "tradeledger/src/utils/redis"

	"gorm.io/gorm"
)

// Services bundles the services sharing one database and price book.
type Services struct {
	Accounts  *AccountService
	Reports   *ReportService
	Snapshots *SnapshotService
	Prices    *pricing.Book
}

// NewServices builds the repositories and services over db and seeds the
// price book from configuration. The returned cleanup releases the quote
// cache connection.
func NewServices(ctx context.Context, cfg *config.Config, db *gorm.DB, publisher events.Publisher) (*Services, func(), error) {
	cleanup := func() {}

	var cache pricing.QuoteCache
	if cfg.Databases.Redis.Enabled {
		handler, err := redis_utils.NewRedisHandler(ctx, cfg.Databases.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cache = pricing.NewRedisCache(handler, cfg.Pricing.CacheTTL)
		cleanup = func() { _ = handler.Close() }
	} else {
		cache = pricing.NewLocalCache(cfg.Pricing.CacheTTL)
	}

	book := pricing.NewBook(repositories.NewPriceRepository(db), cache)
	quotes, err := pricing.QuotesFromConfig(cfg.Pricing)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := book.Seed(ctx, quotes); err != nil {
		cleanup()
		return nil, nil, err
	}

	accountRepo := repositories.NewAccountRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)

	accounts := NewAccountService(
		db,
		accountRepo,
		repositories.NewHoldingRepository(db),
		transactionRepo,
		book,
		publisher,
	)
	if cfg.Events.PublishTimeout > 0 {
		accounts.publishTimeout = cfg.Events.PublishTimeout
	}
	return &Services{
		Accounts:  accounts,
		Reports:   NewReportService(accounts, transactionRepo, snapshotRepo, book),
		Snapshots: NewSnapshotService(accountRepo, snapshotRepo, accounts, cfg.Worker.Concurrency),
		Prices:    book,
	}, cleanup, nil
}

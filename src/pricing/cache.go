package pricing

import (
	"context"
	"errors"
	"time"

	"tradeledger/src/utils"
	redis_utils "tradeledger/src/utils/redis"
)

// QuoteCache holds the whole quote table keyed by symbol.
type QuoteCache interface {
	GetQuotes(ctx context.Context) (map[string]Quote, bool, error)
	SetQuotes(ctx context.Context, quotes map[string]Quote) error
	Invalidate(ctx context.Context) error
}

// LocalCache keeps the table in process memory.
type LocalCache struct {
	cache *utils.Cache[map[string]Quote]
	ttl   time.Duration
}

func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{cache: utils.NewCache[map[string]Quote](), ttl: ttl}
}

func (c *LocalCache) GetQuotes(_ context.Context) (map[string]Quote, bool, error) {
	quotes, ok := c.cache.Get()
	return quotes, ok, nil
}

func (c *LocalCache) SetQuotes(_ context.Context, quotes map[string]Quote) error {
	c.cache.Set(quotes, c.ttl)
	return nil
}

func (c *LocalCache) Invalidate(_ context.Context) error {
	c.cache.Clear()
	return nil
}

const redisQuotesKey = "tradeledger:quotes"

// RedisCache shares the table between processes through Redis.
type RedisCache struct {
	handler *redis_utils.RedisHandler
	ttl     time.Duration
}

func NewRedisCache(handler *redis_utils.RedisHandler, ttl time.Duration) *RedisCache {
	return &RedisCache{handler: handler, ttl: ttl}
}

func (c *RedisCache) GetQuotes(ctx context.Context) (map[string]Quote, bool, error) {
	var quotes map[string]Quote
	err := c.handler.Get(ctx, redisQuotesKey, &quotes)
	if errors.Is(err, redis_utils.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return quotes, true, nil
}

func (c *RedisCache) SetQuotes(ctx context.Context, quotes map[string]Quote) error {
	return c.handler.Set(ctx, redisQuotesKey, quotes, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.handler.Delete(ctx, redisQuotesKey)
}

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cacheClient is the subset of redis.Cmdable the cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedWarehouse is a read-through Redis cache in front of a Warehouse.
// Cache failures are logged and never fail a request.
type CachedWarehouse struct {
	next   Warehouse
	client cacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// NewCachedWarehouse wraps next with a cache stored in client.
func NewCachedWarehouse(next Warehouse, client cacheClient, ttl time.Duration, logger *zap.Logger) *CachedWarehouse {
	return &CachedWarehouse{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedWarehouse) Cities(ctx context.Context) ([]string, error) {
	return cached(ctx, c, CacheKey("cities"), func() ([]string, error) {
		return c.next.Cities(ctx)
	})
}

func (c *CachedWarehouse) Dates(ctx context.Context, city string) ([]string, error) {
	return cached(ctx, c, CacheKey("dates", city), func() ([]string, error) {
		return c.next.Dates(ctx, city)
	})
}

func (c *CachedWarehouse) Trend(ctx context.Context, city, date string, pollutants []Pollutant) ([]TrendPoint, error) {
	names := make([]string, len(pollutants))
	for i, p := range pollutants {
		names[i] = string(p)
	}
	key := CacheKey("trend", city, date, strings.Join(names, "+"))
	return cached(ctx, c, key, func() ([]TrendPoint, error) {
		return c.next.Trend(ctx, city, date, pollutants)
	})
}

func (c *CachedWarehouse) AQIMap(ctx context.Context) ([]MapPoint, error) {
	return cached(ctx, c, CacheKey("aqimap"), func() ([]MapPoint, error) {
		return c.next.AQIMap(ctx)
	})
}

func (c *CachedWarehouse) CityLocations(ctx context.Context, city string) ([]MapPoint, error) {
	return cached(ctx, c, CacheKey("locations", city), func() ([]MapPoint, error) {
		return c.next.CityLocations(ctx, city)
	})
}

// CacheKey builds "dashboard:<op>[:<arg>...]".
func CacheKey(op string, args ...string) string {
	return strings.Join(append([]string{"dashboard", op}, args...), ":")
}

func cached[T any](ctx context.Context, c *CachedWarehouse, key string, load func() (T, error)) (T, error) {
	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var v T
		jerr := json.Unmarshal([]byte(raw), &v)
		if jerr == nil {
			c.logger.Debug("cache hit", zap.String("key", key))
			return v, nil
		}
		c.logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(jerr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

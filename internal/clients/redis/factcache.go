package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/celoacademy/academy-backend/internal/logger"
)

// FactCache is the TTL store backing chain-fact reads. Values are tiny
// (bools and counters), invalidation is by key prefix so one confirmed
// transaction can drop every fact for its (wallet, token) pair at once.
type FactCache interface {
	GetBool(ctx context.Context, key string) (value bool, found bool, err error)
	SetBool(ctx context.Context, key string, value bool, ttl time.Duration) error
	GetUint(ctx context.Context, key string) (value uint64, found bool, err error)
	SetUint(ctx context.Context, key string, value uint64, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

type factCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewFactCache(log *logger.Logger) (FactCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &factCache{
		log: log.With("service", "RedisFactCache"),
		rdb: rdb,
	}, nil
}

func (c *factCache) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return raw == "1", true, nil
}

func (c *factCache) SetBool(ctx context.Context, key string, value bool, ttl time.Duration) error {
	raw := "0"
	if value {
		raw = "1"
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *factCache) GetUint(ctx context.Context, key string) (uint64, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		// Treat unparseable entries as misses; they will be rewritten.
		return 0, false, nil
	}
	return v, true, nil
}

func (c *factCache) SetUint(ctx context.Context, key string, value uint64, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, strconv.FormatUint(value, 10), ttl).Err()
}

func (c *factCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *factCache) Close() error {
	return c.rdb.Close()
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores rendered listing responses in redis. A nil *Cache is valid
// and never hits.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: rdb, prefix: opts.Prefix, ttl: ttl, logger: logger}, nil
}

func (c *Cache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get decodes the cached value into out and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := jsoncompat.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := jsoncompat.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

// InvalidatePrefix removes every key starting with prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", 200).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	c.logger.Debug("invalidating cache", zap.String("prefix", prefix), zap.Int("keys", len(keys)))
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Fetch returns the cached value for key or computes and stores it. Cache
// errors are logged and never fail the request.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func() (T, error)) (T, bool, error) {
	var out T
	found, err := c.Get(ctx, key, &out)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return out, true, nil
	}
	out, err = fn()
	if err != nil {
		return out, false, err
	}
	if err := c.Set(ctx, key, out); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, false, nil
}

// KindPrefix is the prefix of every key cached for contentType.
func KindPrefix(contentType types.ContentType) string {
	return string(contentType) + ":"
}

// ListingKey builds a key that is the same for equivalent queries, whatever
// the parameter and value order.
func ListingKey(contentType types.ContentType, endpoint string, query url.Values) string {
	canonical := make(url.Values, len(query))
	for k, values := range query {
		nonEmpty := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}
		slices.Sort(nonEmpty)
		canonical[k] = nonEmpty
	}
	return KindPrefix(contentType) + endpoint + "?" + canonical.Encode()
}

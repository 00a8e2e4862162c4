package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"deputados/internal/log"
)

const (
	// DefaultRedisPrefix namespaces listing keys in a shared Redis.
	DefaultRedisPrefix = "deputados:listing:"

	// DefaultRedisTTL applies when NewRedisCache gets no positive ttl; Redis
	// would otherwise keep the entry forever.
	DefaultRedisTTL = time.Minute
)

// ConnectRedis opens a client for addr, which may be a redis:// URL or a
// bare host:port, and checks it with a ping.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "redis://" + addr
	}
	opt, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisCache stores listing bodies in Redis so several server replicas
// share one memo. Redis failures degrade to misses.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Cache[[]byte] = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *log.Logger) *RedisCache {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{
		client:  client,
		prefix:  DefaultRedisPrefix,
		ttl:     ttl,
		timeout: time.Second,
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

func (c *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis get failed", log.FieldError, err, "key", key)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

func (c *RedisCache) Set(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Redis set failed", log.FieldError, err, "key", key)
	}
}

func (c *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn("Redis delete failed", log.FieldError, err, "key", key)
	}
}

// Size counts the keys under the listing prefix. Returns 0 when Redis is
// unreachable.
func (c *RedisCache) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Redis scan failed", log.FieldError, err)
		return 0
	}
	return n
}

// Stats reports lookups served by this process. Redis expires entries on
// its own, so Evictions stays zero.
func (c *RedisCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

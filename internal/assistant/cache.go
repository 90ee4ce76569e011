package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/metrics"
	"github.com/spigell/lendmatch/internal/store"
)

const (
	defaultCachePrefix = "lendmatch:extract:"
	defaultCacheTTL    = 24 * time.Hour
)

// CacheConfig configures the Redis extraction cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// CachedExtractor remembers extraction results per conversation. Identical histories are
// extracted once per TTL. Redis failures are logged and the wrapped extractor is used.
type CachedExtractor struct {
	next   Extractor
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCachedExtractor wraps next with a Redis cache.
func NewCachedExtractor(next Extractor, client redis.Cmdable, cfg CacheConfig, logger *zap.Logger) *CachedExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultCachePrefix
	}

	return &CachedExtractor{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (c *CachedExtractor) Extract(ctx context.Context, history []store.Message) (matching.Profile, error) {
	key, err := c.key(history)
	if err != nil {
		return c.next.Extract(ctx, history)
	}

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var profile matching.Profile
		uerr := json.Unmarshal([]byte(cached), &profile)
		if uerr == nil {
			metrics.ExtractionCache.WithLabelValues("hit").Inc()
			c.logger.Debug("extraction cache hit", zap.String("key", key))
			return profile, nil
		}
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(uerr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("extraction cache lookup failed", zap.Error(err))
	}

	metrics.ExtractionCache.WithLabelValues("miss").Inc()

	profile, err := c.next.Extract(ctx, history)
	if err != nil {
		return matching.Profile{}, err
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return profile, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("extraction cache store failed", zap.Error(err))
	}

	return profile, nil
}

// key hashes only role and content so stored message IDs and timestamps do not matter.
func (c *CachedExtractor) key(history []store.Message) (string, error) {
	type turn struct {
		Role    store.Role `json:"r"`
		Content string     `json:"c"`
	}

	turns := make([]turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, turn{Role: msg.Role, Content: msg.Content})
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", c.prefix, sum[:]), nil
}

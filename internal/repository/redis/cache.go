package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/domain"
)

// Cache provides Redis caching for hot read paths: recently fetched reports,
// comparison status polling, and per-client rate limiting.
type Cache struct {
	client *redis.Client
}

// Key prefixes for different cache types
const (
	PrefixReport     = "report:"
	PrefixComparison = "comparison:"
	PrefixRateLimit  = "ratelimit:"
)

// Default TTLs
const (
	ReportTTL = 15 * time.Minute
	// StatusTTL is short because clients poll while the pipeline runs.
	StatusTTL       = 10 * time.Second
	RateLimitWindow = 1 * time.Minute
)

// New creates a new Redis cache client
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewFromClient wraps an existing client, used by tests.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Health checks Redis connectivity
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Report caching

// GetReport retrieves a cached audit report. A miss returns nil, nil.
func (c *Cache) GetReport(ctx context.Context, id uuid.UUID) (*domain.AuditReport, error) {
	data, err := c.client.Get(ctx, PrefixReport+id.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var report domain.AuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// SetReport caches an audit report
func (c *Cache) SetReport(ctx context.Context, report *domain.AuditReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, PrefixReport+report.ID.String(), data, ReportTTL).Err()
}

// Comparison status caching

// GetComparisonStatus retrieves a cached comparison status. A miss returns
// the empty status.
func (c *Cache) GetComparisonStatus(ctx context.Context, id uuid.UUID) (domain.ComparisonStatus, error) {
	status, err := c.client.Get(ctx, PrefixComparison+id.String()+":status").Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return domain.ComparisonStatus(status), nil
}

// SetComparisonStatus caches a comparison status
func (c *Cache) SetComparisonStatus(ctx context.Context, id uuid.UUID, status domain.ComparisonStatus) error {
	return c.client.Set(ctx, PrefixComparison+id.String()+":status", string(status), StatusTTL).Err()
}

// InvalidateComparison removes a cached comparison status
func (c *Cache) InvalidateComparison(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, PrefixComparison+id.String()+":status").Err()
}

// Rate limiting

// CheckRateLimit checks and increments rate limit counter
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int) (bool, int, error) {
	fullKey := PrefixRateLimit + key

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, RateLimitWindow)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}

// GetRateLimitRemaining returns remaining rate limit
func (c *Cache) GetRateLimitRemaining(ctx context.Context, key string, limit int) (int, error) {
	fullKey := PrefixRateLimit + key
	count, err := c.client.Get(ctx, fullKey).Int()
	if err != nil {
		if err == redis.Nil {
			return limit, nil
		}
		return 0, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

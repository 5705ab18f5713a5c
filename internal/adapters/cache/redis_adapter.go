package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthassist/backend/internal/domain/providers"
	redisclient "github.com/healthassist/backend/internal/infrastructure/clients/redis"
	"github.com/healthassist/backend/internal/infrastructure/observability"
)

// RedisAdapter stores directory responses in Redis.
type RedisAdapter struct {
	client *redisclient.Client
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// Get maps redis.Nil to providers.ErrCacheMiss so callers never import go-redis.
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "cache.get")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("cache.namespace", keyNamespace(key)))

	payload, err := a.client.Client().Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		observability.SetSpanAttributes(span, attribute.Bool("cache.hit", false))
		return nil, providers.ErrCacheMiss
	case err != nil:
		observability.RecordError(span, err)
		return nil, fmt.Errorf("cache get %s: %w", keyNamespace(key), err)
	}
	observability.SetSpanAttributes(span,
		attribute.Bool("cache.hit", true),
		attribute.Int("cache.bytes", len(payload)),
	)
	return payload, nil
}

// Set with a zero ttl keeps the entry until it is evicted.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := observability.StartSpan(ctx, "cache.set")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("cache.namespace", keyNamespace(key)),
		attribute.Int64("cache.ttl_seconds", int64(ttl/time.Second)),
	)

	if err := a.client.Client().Set(ctx, key, value, ttl).Err(); err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("cache set %s: %w", keyNamespace(key), err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", keyNamespace(key), err)
	}
	return nil
}

// keyNamespace drops the final segment of a colon-separated key so that
// request-specific parts stay out of spans and error messages.
func keyNamespace(key string) string {
	if i := strings.LastIndex(key, ":"); i > 0 {
		return key[:i]
	}
	return key
}

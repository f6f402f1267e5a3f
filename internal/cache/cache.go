package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dashboard caches aggregated dashboard payloads in redis for a short TTL.
// A nil *Dashboard is a valid no-op cache, so callers never branch on
// whether redis is configured.
type Dashboard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboard connects to redis with short timeouts. Returns nil when no
// address is configured.
func NewDashboard(addr string, ttl time.Duration) *Dashboard {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Dashboard{client: client, ttl: ttl}
}

// Get returns a cached payload. Any redis failure reads as a miss.
func (d *Dashboard) Get(ctx context.Context, key string) ([]byte, bool) {
	if d == nil || d.client == nil {
		return nil, false
	}
	data, err := d.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a payload; failures are ignored, the next request recomputes.
func (d *Dashboard) Set(ctx context.Context, key string, payload []byte) {
	if d == nil || d.client == nil {
		return
	}
	_ = d.client.Set(ctx, key, payload, d.ttl).Err()
}

// Invalidate drops a cached payload after a write.
func (d *Dashboard) Invalidate(ctx context.Context, keys ...string) {
	if d == nil || d.client == nil || len(keys) == 0 {
		return
	}
	_ = d.client.Del(ctx, keys...).Err()
}

// Healthy verifies redis connectivity.
func (d *Dashboard) Healthy(ctx context.Context) bool {
	if d == nil || d.client == nil {
		return false
	}
	return d.client.Ping(ctx).Err() == nil
}

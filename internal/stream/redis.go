// FilePath: internal/stream/redis.go
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smartir/hub/internal/config"
	nuts "github.com/vaudience/go-nuts"
)

// RedisRelay mirrors broadcast payloads onto a Redis pub/sub channel so
// external consumers (alerting, archival jobs) can tap the detection feed.
// It is not part of the dashboard fan-out path and follows the same
// best-effort policy: publish failures are logged, never propagated.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

// NewRedisRelay connects to Redis and verifies the connection.
func NewRedisRelay(ctx context.Context, cfg config.RedisConfig) (*RedisRelay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[RedisRelay] Connected to %s:%d, publishing on %q", cfg.Host, cfg.Port, cfg.Channel)
	return &RedisRelay{client: client, channel: cfg.Channel}, nil
}

// Publish sends the event to the relay channel. Failures are logged only.
func (r *RedisRelay) Publish(ctx context.Context, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		nuts.L.Errorf("[RedisRelay] Failed to encode event: %v", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		nuts.L.Warnf("[RedisRelay] Publish failed: %v", err)
	}
}

// Close releases the Redis connection.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}

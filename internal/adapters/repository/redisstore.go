package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshots persists exported competitor states as a Redis hash:
// one field per competitor id, each value a JSON-encoded rating.State.
type RedisSnapshots struct {
	client redis.UniversalClient
	key    string
}

// NewRedisSnapshots wraps an existing client. The caller owns the client.
func NewRedisSnapshots(client redis.UniversalClient, key string) *RedisSnapshots {
	return &RedisSnapshots{client: client, key: key}
}

// Ping checks connectivity.
func (r *RedisSnapshots) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Save replaces the stored hash with states in a single transaction.
func (r *RedisSnapshots) Save(ctx context.Context, states map[string]rating.State) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotSave(err == nil, float64(time.Since(start).Milliseconds()), len(states))
	}()

	fields := make(map[string]any, len(states))
	for id, st := range states {
		raw, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode %s: %w", id, err)
		}
		fields[id] = raw
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", r.key, err)
	}
	return nil
}

// Load reads every stored state. A missing key yields an empty map.
func (r *RedisSnapshots) Load(ctx context.Context) (map[string]rating.State, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", r.key, err)
	}

	out := make(map[string]rating.State, len(raw))
	for id, v := range raw {
		var st rating.State
		if err := json.Unmarshal([]byte(v), &st); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		out[id] = st
	}
	return out, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"cardsmith/internal/domain"
)

const snapshotKeyPrefix = "cardsmith:snapshot:"

// SnapshotStoreRedis implements domain.SnapshotStore over Redis. Snapshots
// carry a TTL so abandoned sessions expire on their own.
type SnapshotStoreRedis struct {
	pool *redis.Pool
	ttl  time.Duration
}

// NewSnapshotStoreRedis creates a Redis-backed snapshot store. A zero ttl
// disables expiry.
func NewSnapshotStoreRedis(pool *redis.Pool, ttl time.Duration) *SnapshotStoreRedis {
	return &SnapshotStoreRedis{pool: pool, ttl: ttl}
}

// Save writes the snapshot wholesale under the given key.
func (s *SnapshotStoreRedis) Save(ctx context.Context, key string, data []byte) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis: acquire connection: %w", err)
	}
	defer conn.Close()

	if s.ttl > 0 {
		_, err = conn.Do("SET", snapshotKeyPrefix+key, data, "EX", int64(s.ttl.Seconds()))
	} else {
		_, err = conn.Do("SET", snapshotKeyPrefix+key, data)
	}
	if err != nil {
		return fmt.Errorf("redis: save snapshot: %w", err)
	}
	return nil
}

// Load fetches the snapshot stored under the given key.
func (s *SnapshotStoreRedis) Load(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis: acquire connection: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", snapshotKeyPrefix+key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: load snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the snapshot stored under the given key.
func (s *SnapshotStoreRedis) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis: acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("DEL", snapshotKeyPrefix+key); err != nil {
		return fmt.Errorf("redis: delete snapshot: %w", err)
	}
	return nil
}

// Package store mirrors the latest published snapshot into Redis. This is
// the only persistence in the bridge: a restart can report the age of the
// last known snapshot and external consumers can read it without hitting
// the bridge's HTTP surface.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/model"
)

const opTimeout = 5 * time.Second

// SnapshotStore keeps the last snapshot under a single key with TTL.
type SnapshotStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
	log   *logrus.Logger
}

// NewSnapshotStore connects a store to Redis.
func NewSnapshotStore(cfg config.RedisConfig, log *logrus.Logger) *SnapshotStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &SnapshotStore{
		redis: client,
		key:   cfg.Key,
		ttl:   cfg.TTL,
		log:   log,
	}
}

// Save overwrites the mirrored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mirror snapshot to redis: %w", err)
	}
	return nil
}

// Load returns the mirrored snapshot, or nil when none is stored.
func (s *SnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := s.redis.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirrored snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mirrored snapshot: %w", err)
	}
	return &snap, nil
}

// Listener adapts Save to the coordinator's listener signature. Mirror
// failures are logged, never propagated into the refresh cycle.
func (s *SnapshotStore) Listener() func(*model.Snapshot) {
	return func(snap *model.Snapshot) {
		if err := s.Save(context.Background(), snap); err != nil {
			s.log.Errorf("Snapshot mirror failed: %v", err)
		}
	}
}

// Close releases the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.redis.Close()
}

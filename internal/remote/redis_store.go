// Package remote implements the remote snapshot store used by cross-device
// reconciliation. Snapshots are whole JSON documents keyed by user identity;
// they are read and written wholesale, never patched.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"examly-backend/internal/model"
)

// ErrNoSnapshot is returned when the user has no remote copy yet.
var ErrNoSnapshot = errors.New("no remote snapshot")

// SnapshotStore is the narrow interface the sync service depends on.
type SnapshotStore interface {
	Fetch(ctx context.Context, userKey string) (*model.RemoteSnapshot, error)
	Push(ctx context.Context, userKey string, snapshot *model.RemoteSnapshot) error
}

// RedisStore keeps one snapshot document per user in Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, dbNum int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       dbNum,
		}),
	}
}

func snapshotKey(userKey string) string {
	return fmt.Sprintf("examly:snapshot:%s", userKey)
}

func (s *RedisStore) Fetch(ctx context.Context, userKey string) (*model.RemoteSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(userKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	var snapshot model.RemoteSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt remote document is treated as absent rather than fatal;
		// the next push overwrites it.
		return nil, ErrNoSnapshot
	}
	return &snapshot, nil
}

func (s *RedisStore) Push(ctx context.Context, userKey string, snapshot *model.RemoteSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(userKey), data, 0).Err(); err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

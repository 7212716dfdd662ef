package presence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pokearena/internal/dependencies/clock"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

const onlineKey = "pokearena:online"

// RedisTracker keeps presence in a sorted set scored by login time, so it is
// shared between server instances. The set outlives the process; call Clear
// at startup.
type RedisTracker struct {
	client *redis.Client
	clock  clock.Clock
}

// NewRedisTracker creates a tracker on an existing client
func NewRedisTracker(client *redis.Client, clk clock.Clock) *RedisTracker {
	return &RedisTracker{client: client, clock: clk}
}

// Ensure RedisTracker implements Tracker
var _ Tracker = (*RedisTracker)(nil)

func (t *RedisTracker) Add(ctx context.Context, id model.UserID) error {
	err := t.client.ZAddNX(ctx, onlineKey, redis.Z{
		Score:  float64(t.clock.Now().UnixNano()),
		Member: string(id),
	}).Err()
	if err != nil {
		return storage.Wrap("presence add", err)
	}
	return nil
}

func (t *RedisTracker) Remove(ctx context.Context, id model.UserID) error {
	if err := t.client.ZRem(ctx, onlineKey, string(id)).Err(); err != nil {
		return storage.Wrap("presence remove", err)
	}
	return nil
}

func (t *RedisTracker) List(ctx context.Context) ([]model.UserID, error) {
	members, err := t.client.ZRange(ctx, onlineKey, 0, -1).Result()
	if err != nil {
		return nil, storage.Wrap("presence list", err)
	}
	ids := make([]model.UserID, len(members))
	for i, m := range members {
		ids[i] = model.UserID(m)
	}
	return ids, nil
}

func (t *RedisTracker) Clear(ctx context.Context) error {
	if err := t.client.Del(ctx, onlineKey).Err(); err != nil {
		return storage.Wrap("presence clear", err)
	}
	return nil
}

func (t *RedisTracker) Contains(ctx context.Context, id model.UserID) (bool, error) {
	_, err := t.client.ZScore(ctx, onlineKey, string(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, storage.Wrap("presence lookup", err)
	}
	return true, nil
}

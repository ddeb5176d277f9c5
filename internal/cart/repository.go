package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCorruptSlot is returned when a persisted cart cannot be decoded.
var ErrCorruptSlot = errors.New("cart slot is corrupt")

// Repository persists the lines of one cart per session.
type Repository interface {
	Load(ctx context.Context, sessionID string) ([]Item, error)
	Save(ctx context.Context, sessionID string, items []Item) error
	Delete(ctx context.Context, sessionID string) error
}

type slotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisRepository keeps each cart as a JSON array under its own key with a
// sliding expiry.
type RedisRepository struct {
	store slotStore
	ttl   time.Duration
}

// NewRedisRepository wires the repository to a namespaced redis client.
// A zero ttl keeps slots forever.
func NewRedisRepository(store slotStore, ttl time.Duration) (*RedisRepository, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	return &RedisRepository{store: store, ttl: ttl}, nil
}

// Load returns the persisted lines. A missing slot is an empty cart.
func (r *RedisRepository) Load(ctx context.Context, sessionID string) ([]Item, error) {
	key := r.store.CartKey(sessionID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart slot: %w", err)
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}

	if r.ttl > 0 {
		if _, err := r.store.Expire(ctx, key, r.ttl); err != nil {
			return nil, fmt.Errorf("refresh cart slot ttl: %w", err)
		}
	}
	return items, nil
}

// Save overwrites the slot with items. An empty cart deletes the slot.
func (r *RedisRepository) Save(ctx context.Context, sessionID string, items []Item) error {
	if len(items) == 0 {
		return r.Delete(ctx, sessionID)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart slot: %w", err)
	}
	if err := r.store.Set(ctx, r.store.CartKey(sessionID), string(payload), r.ttl); err != nil {
		return fmt.Errorf("save cart slot: %w", err)
	}
	return nil
}

// Delete removes the slot.
func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart slot: %w", err)
	}
	return nil
}

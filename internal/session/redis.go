package session

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"activities-web/internal/domain"
	"activities-web/pkg/redis"
)

// RedisStore keeps view states in Redis so every instance behind a load
// balancer sees the same view for a visitor. Each update refreshes the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = redis.TTLViewSession
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns the session's view, or an empty one. Reading a view slides
// its TTL like an update does.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.ViewState, error) {
	key := s.client.KeyBuilder.KeyViewSession(sessionID)
	data, err := s.client.Get(ctx, key)
	if err == goredis.Nil {
		return domain.NewViewState(), nil
	}
	if err != nil {
		return nil, err
	}

	view, err := decode([]byte(data))
	if err != nil {
		return nil, err
	}
	if err := s.client.Expire(ctx, key, s.ttl); err != nil {
		return nil, err
	}
	return view, nil
}

// Update applies fn inside an optimistic WATCH/MULTI transaction.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(*domain.ViewState) error) (*domain.ViewState, error) {
	var result *domain.ViewState
	key := s.client.KeyBuilder.KeyViewSession(sessionID)

	err := s.client.Update(ctx, key, s.ttl, func(current string, exists bool) (string, error) {
		view := domain.NewViewState()
		if exists {
			decoded, err := decode([]byte(current))
			if err != nil {
				return "", err
			}
			view = decoded
		}

		if err := fn(view); err != nil {
			return "", err
		}

		data, err := encode(view)
		if err != nil {
			return "", err
		}
		result = view
		return string(data), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Health pings Redis.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

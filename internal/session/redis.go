package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key возвращает ключ Redis для сессии.
func Key(id string) string {
	return fmt.Sprintf("divineshop:session:%s", id)
}

// RedisStore хранит сессии в Redis с TTL на ключе.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore создаёт хранилище сессий поверх клиента Redis.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: TTL}
}

// Create создаёт сессию пользователя.
func (s *RedisStore) Create(ctx context.Context, userID int64) (string, error) {
	id := newID()
	if err := s.rdb.Set(ctx, Key(id), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Lookup возвращает пользователя сессии.
func (s *RedisStore) Lookup(ctx context.Context, id string) (int64, error) {
	v, err := s.rdb.Get(ctx, Key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("load session: %w", err)
	}

	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session %q: %w", id, err)
	}
	return userID, nil
}

// Destroy удаляет сессию.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

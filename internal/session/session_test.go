package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	id, err := s.Create(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	userID, err := s.Lookup(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 7, userID)

	require.NoError(t, s.Destroy(ctx, id))

	_, err = s.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	expired, err := s.Create(ctx, 1)
	require.NoError(t, err)

	now = now.Add(TTL - time.Minute)
	alive, err := s.Create(ctx, 2)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = s.Lookup(ctx, expired)
	assert.ErrorIs(t, err, ErrNotFound)

	userID, err := s.Lookup(ctx, alive)
	require.NoError(t, err)
	assert.EqualValues(t, 2, userID)
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := int64(0); i < 3; i++ {
		_, err := s.Create(ctx, i)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, s.sweep())

	now = now.Add(TTL)
	assert.Equal(t, 3, s.sweep())
	assert.Empty(t, s.sessions)
}

func TestMemoryStoreRunStopsOnCancel(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb)
	ctx := context.Background()

	id, err := s.Create(ctx, 42)
	require.NoError(t, err)

	assert.True(t, mr.Exists(Key(id)))
	assert.Equal(t, TTL, mr.TTL(Key(id)))

	userID, err := s.Lookup(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)

	mr.FastForward(TTL + time.Second)
	_, err = s.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	id, err = s.Create(ctx, 43)
	require.NoError(t, err)
	require.NoError(t, s.Destroy(ctx, id))

	_, err = s.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore хранит сессии в памяти процесса. Истёкшие записи удаляются
// при обращении и фоновой очисткой Run.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewMemoryStore создаёт хранилище сессий в памяти.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      TTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Create создаёт сессию пользователя.
func (s *MemoryStore) Create(_ context.Context, userID int64) (string, error) {
	id := newID()

	s.mu.Lock()
	s.sessions[id] = memoryEntry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return id, nil
}

// Lookup возвращает пользователя сессии.
func (s *MemoryStore) Lookup(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return 0, ErrNotFound
	}
	return e.userID, nil
}

// Destroy удаляет сессию. Отсутствие сессии ошибкой не считается.
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Run периодически удаляет истёкшие сессии, пока ctx не будет отменён.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

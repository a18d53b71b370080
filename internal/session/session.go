// Package session хранит серверные сессии пользователей.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TTL — время жизни сессии.
const TTL = 24 * time.Hour

// ErrNotFound возвращается для отсутствующей или истёкшей сессии.
var ErrNotFound = errors.New("session not found")

// Store описывает хранилище сессий. Сессия связывает непрозрачный
// идентификатор с идентификатором пользователя.
type Store interface {
	Create(ctx context.Context, userID int64) (string, error)
	Lookup(ctx context.Context, id string) (int64, error)
	Destroy(ctx context.Context, id string) error
}

func newID() string {
	return uuid.NewString()
}

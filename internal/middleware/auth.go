// Package middleware содержит HTTP middleware для сервиса DivineShop.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/session"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	sessionIDKey contextKey = "sessionID"
)

// SessionCookieName — имя cookie с идентификатором сессии.
const SessionCookieName = "divineshop_sid"

// AuthMiddleware определяет пользователя запроса по cookie сессии.
type AuthMiddleware struct {
	store     session.Store
	secretKey []byte
	secure    bool
	logger    *zap.Logger
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware. Пустой secret
// заменяется случайным ключом, и сессии не переживают перезапуск процесса.
func NewAuthMiddleware(store session.Store, secret string, secure bool, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Fatal("failed to generate session secret", zap.Error(err))
		}
	}

	return &AuthMiddleware{
		store:     store,
		secretKey: key,
		secure:    secure,
		logger:    logger,
	}
}

// Middleware загружает сессию из cookie и добавляет пользователя в контекст запроса.
// Запрос без действующей сессии передаётся дальше анонимным.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sid, ok := a.parseCookie(cookie.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := a.store.Lookup(r.Context(), sid)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				a.logger.Error("failed to load session", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		ctx = context.WithValue(ctx, userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth отвечает 401, если запрос не аутентифицирован.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Not authenticated"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartSession создаёт сессию пользователя и устанавливает cookie. Сессия,
// с которой пришёл запрос, уничтожается.
func (a *AuthMiddleware) StartSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	if old, ok := GetSessionIDFromContext(r.Context()); ok {
		if err := a.store.Destroy(r.Context(), old); err != nil {
			return err
		}
	}

	sid, err := a.store.Create(r.Context(), userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    a.sign(sid),
		Path:     "/",
		Expires:  time.Now().Add(session.TTL),
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// EndSession уничтожает сессию запроса и удаляет cookie.
func (a *AuthMiddleware) EndSession(w http.ResponseWriter, r *http.Request) error {
	if sid, ok := GetSessionIDFromContext(r.Context()); ok {
		if err := a.store.Destroy(r.Context(), sid); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *AuthMiddleware) sign(sid string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(sid))
	return sid + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	sid, signature, ok := strings.Cut(cookieValue, ".")
	if !ok || sid == "" {
		return "", false
	}

	_, expected, _ := strings.Cut(a.sign(sid), ".")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}
	return sid, true
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetSessionIDFromContext извлекает идентификатор сессии из контекста запроса.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

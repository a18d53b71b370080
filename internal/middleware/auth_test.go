package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmeshcher/divineshop/internal/session"
)

func login(t *testing.T, m *AuthMiddleware, userID int64) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := m.StartSession(w, r, userID); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookies set by StartSession")
	}
	return cookies[0]
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m := NewAuthMiddleware(session.NewMemoryStore(nil), "test-secret", false, nil)
	cookie := login(t, m, 42)

	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if cookie.Name != SessionCookieName {
		t.Fatalf("cookie name = %q, want %q", cookie.Name, SessionCookieName)
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		id, ok := GetUserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("user id not in context")
		}
		if id != 42 {
			t.Fatalf("user id from context = %d, want 42", id)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(cookie)

	m.Middleware(RequireAuth(next)).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutCookie(t *testing.T) {
	m := NewAuthMiddleware(session.NewMemoryStore(nil), "test-secret", false, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Middleware(RequireAuth(next)).ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_TamperedCookie(t *testing.T) {
	m := NewAuthMiddleware(session.NewMemoryStore(nil), "test-secret", false, nil)
	cookie := login(t, m, 42)
	cookie.Value += "00"

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(cookie)

	m.Middleware(RequireAuth(http.NotFoundHandler())).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_CookieFromOtherSecret(t *testing.T) {
	store := session.NewMemoryStore(nil)
	issuer := NewAuthMiddleware(store, "secret-a", false, nil)
	verifier := NewAuthMiddleware(store, "secret-b", false, nil)
	cookie := login(t, issuer, 42)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(cookie)

	verifier.Middleware(RequireAuth(http.NotFoundHandler())).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_EndSession(t *testing.T) {
	store := session.NewMemoryStore(nil)
	m := NewAuthMiddleware(store, "test-secret", true, nil)
	cookie := login(t, m, 7)

	if !cookie.Secure {
		t.Fatalf("cookie must be Secure when secure mode is on")
	}

	var sid string
	logout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, _ = GetSessionIDFromContext(r.Context())
		if err := m.EndSession(w, r); err != nil {
			t.Fatalf("EndSession: %v", err)
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	m.Middleware(logout).ServeHTTP(w, r)

	if sid == "" {
		t.Fatalf("session id not in context")
	}
	if _, err := store.Lookup(context.Background(), sid); err == nil {
		t.Fatalf("session must be destroyed")
	}

	cleared := w.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge >= 0 {
		t.Fatalf("session cookie must be cleared, got %+v", cleared)
	}
}

func TestAuthMiddleware_StartSessionReplacesOld(t *testing.T) {
	store := session.NewMemoryStore(nil)
	m := NewAuthMiddleware(store, "test-secret", false, nil)
	cookie := login(t, m, 1)

	var oldSID string
	relogin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oldSID, _ = GetSessionIDFromContext(r.Context())
		if err := m.StartSession(w, r, 2); err != nil {
			t.Fatalf("StartSession: %v", err)
		}
	})

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.AddCookie(cookie)
	m.Middleware(relogin).ServeHTTP(httptest.NewRecorder(), r)

	if _, err := store.Lookup(context.Background(), oldSID); err == nil {
		t.Fatalf("previous session must be destroyed on login")
	}
}

package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/middleware"
	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/service"
	"github.com/mmeshcher/divineshop/internal/validation"
)

const (
	msgUsernameTaken      = "Username already exists. Please choose a different username."
	msgInvalidCredentials = "Invalid username or password"
	msgNotAuthenticated   = "Not authenticated"
)

// Signup обрабатывает POST /api/auth/signup. Сессия при регистрации не создаётся.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in model.NewUser
	if err := decodeJSON(r, &in); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request body"})
		return
	}

	user, err := h.service.Signup(r.Context(), in)
	if errors.Is(err, repository.ErrUserExists) {
		h.writeJSON(w, http.StatusConflict, envelope{Message: msgUsernameTaken})
		return
	}
	if err != nil {
		h.handleEnvelopeError(w, r, err, "Failed to create user")
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    user,
		Message: "User created successfully",
	})
}

// Login обрабатывает POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Username and password are required"})
		return
	}

	user, err := h.service.Authenticate(r.Context(), creds)
	var verr *validation.Error
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Username and password are required", Details: verr.Details})
		return
	}
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: msgInvalidCredentials})
		return
	}
	if err != nil {
		h.handleEnvelopeError(w, r, err, "Failed to log in")
		return
	}

	if err := h.authMiddleware.StartSession(w, r, user.ID); err != nil {
		h.logger.Error("start session error", zap.Error(err), zap.Int64("userID", user.ID))
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "Failed to log in"})
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    user,
		Message: "Login successful",
	})
}

// Logout обрабатывает POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authMiddleware.EndSession(w, r); err != nil {
		h.logger.Error("end session error", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "Failed to log out"})
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

// Me обрабатывает GET /api/auth/me. Пользователь читается из хранилища при каждом вызове.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: msgNotAuthenticated})
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "User not found"})
		return
	}
	if err != nil {
		h.handleEnvelopeError(w, r, err, "Failed to fetch user")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    user,
		Message: "Authentication successful",
	})
}

// GetUser обрабатывает GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, "User not found", "Failed to fetch user")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// Package handler содержит HTTP-обработчики REST API магазина DivineShop.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/middleware"
	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/payment"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/service"
	"github.com/mmeshcher/divineshop/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)
	CreateCustomer(ctx context.Context, in model.NewCustomer) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (bool, error)

	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, category model.Category) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)

	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrderWithDetails(ctx context.Context, id int64) (*model.OrderWithDetails, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	GetRecentOrders(ctx context.Context, limit int) ([]model.OrderWithDetails, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)

	ListActivities(ctx context.Context) ([]model.Activity, error)
	CreateActivity(ctx context.Context, in model.NewActivity) (*model.Activity, error)
	GetRecentActivities(ctx context.Context, limit int) ([]model.ActivityWithCustomer, error)

	GetDashboardMetrics(ctx context.Context) (*model.DashboardMetrics, error)
	GetProductCategoryStats(ctx context.Context) ([]model.ProductCategoryStat, error)
	GetPopularProducts(ctx context.Context, limit int) ([]model.PopularProduct, error)

	Signup(ctx context.Context, in model.NewUser) (*model.User, error)
	Authenticate(ctx context.Context, creds model.Credentials) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)

	CreatePaymentIntent(ctx context.Context, req model.PaymentIntentRequest, idempotencyKey string) (*payment.Intent, error)
	ConfirmOrder(ctx context.Context, req model.CheckoutRequest) (*model.Order, error)
}

// Handler реализует HTTP-обработчики API магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

type envelope struct {
	Success bool                    `json:"success"`
	Data    any                     `json:"data,omitempty"`
	Message string                  `json:"message,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// classify сопоставляет ошибку бизнес-логики HTTP-статусу. Для неожиданных
// ошибок возвращается 500 и ok=false.
func classify(err error) (status int, message string, details []validation.FieldError, ok bool) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Invalid request body", verr.Details, true
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "", nil, true
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPaymentNotCompleted),
		errors.Is(err, service.ErrPaymentMismatch):
		return http.StatusBadRequest, err.Error(), nil, true
	case errors.Is(err, repository.ErrCustomerExists),
		errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, repository.ErrPaymentAlreadyUsed),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, err.Error(), nil, true
	case errors.Is(err, service.ErrPaymentsDisabled):
		return http.StatusServiceUnavailable, err.Error(), nil, true
	}
	return http.StatusInternalServerError, "", nil, false
}

// handleError отвечает {error} с кодом, соответствующим ошибке. notFound и
// failed используются как тексты для 404 и 500.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, notFound, failed string) {
	status, message, details, ok := classify(err)
	if !ok {
		h.logger.Error(failed, zap.Error(err), zap.String("path", r.URL.Path))
		h.writeError(w, http.StatusInternalServerError, failed)
		return
	}
	if status == http.StatusNotFound {
		message = notFound
	}
	h.writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// handleEnvelopeError отвечает {success:false, message} для auth и payments.
func (h *Handler) handleEnvelopeError(w http.ResponseWriter, r *http.Request, err error, failed string) {
	status, message, details, ok := classify(err)
	if !ok {
		h.logger.Error(failed, zap.Error(err), zap.String("path", r.URL.Path))
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: failed})
		return
	}
	h.writeJSON(w, status, envelope{Message: message, Details: details})
}

// pathID разбирает числовой параметр пути. При ошибке отвечает 400.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pathLimit разбирает параметр limit. Нечисловое значение даёт 0, и сервис
// подставляет значение по умолчанию.
func pathLimit(r *http.Request) int {
	limit, err := strconv.Atoi(chi.URLParam(r, "limit"))
	if err != nil {
		return 0
	}
	return limit
}

// Health проверяет доступность хранилища.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

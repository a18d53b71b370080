// Package service реализует бизнес-логику магазина DivineShop.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/payment"
)

var (
	// ErrInvalidInput возвращается, если запрос ссылается на несуществующие данные
	// или не может быть выполнен в текущем виде.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition возвращается при недопустимой смене статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrPaymentNotCompleted возвращается, если платёж не завершён успешно.
	ErrPaymentNotCompleted = errors.New("payment has not been completed")
	// ErrPaymentMismatch возвращается, если сумма или валюта платежа не покрывают заказ.
	ErrPaymentMismatch = errors.New("payment does not match order")
	// ErrPaymentsDisabled возвращается, если платёжный процессор не настроен.
	ErrPaymentsDisabled = errors.New("payments are not configured")
)

const (
	// DefaultRecentLimit используется для последних заказов и записей журнала.
	DefaultRecentLimit = 5
	// DefaultPopularLimit используется для популярных товаров.
	DefaultPopularLimit = 3
	// MaxLimit ограничивает размер выборок.
	MaxLimit = 100

	newCustomersWindow = 30 * 24 * time.Hour
	defaultRole        = "customer"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	CreateCustomer(ctx context.Context, in model.NewCustomer) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (bool, error)
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)

	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, category model.Category) ([]model.Product, error)

	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	GetOrderWithDetails(ctx context.Context, id int64) (*model.OrderWithDetails, error)
	CreateOrder(ctx context.Context, in model.NewOrder) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to model.OrderStatus, activity *model.NewActivity) (*model.Order, error)
	GetRecentOrders(ctx context.Context, limit int) ([]model.OrderWithDetails, error)

	ListActivities(ctx context.Context) ([]model.Activity, error)
	CreateActivity(ctx context.Context, in model.NewActivity) (*model.Activity, error)
	GetRecentActivities(ctx context.Context, limit int) ([]model.ActivityWithCustomer, error)

	GetDashboardMetrics(ctx context.Context, since time.Time) (*model.DashboardMetrics, error)
	GetProductCategoryStats(ctx context.Context) ([]model.ProductCategoryStat, error)
	GetPopularProducts(ctx context.Context, limit int) ([]model.PopularProduct, error)

	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// PaymentProcessor описывает клиент платёжного процессора.
type PaymentProcessor interface {
	Configured() bool
	CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*payment.Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*payment.Intent, error)
}

// Options задаёт параметры сервиса.
type Options struct {
	BcryptCost int
	Currency   string
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo     Repository
	payments PaymentProcessor
	logger   *zap.Logger
	now      func() time.Time

	bcryptCost int
	currency   string
}

// NewService создаёт новый сервис с указанным репозиторием и платёжным клиентом.
func NewService(repo Repository, payments PaymentProcessor, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}

	return &Service{
		repo:       repo,
		payments:   payments,
		logger:     logger,
		now:        time.Now,
		bcryptCost: opts.BcryptCost,
		currency:   opts.Currency,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// clampLimit подставляет значение по умолчанию для неположительного limit
// и ограничивает его сверху.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxLimit)
}

func metadata(v any) *string {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// Package main заполняет базу демонстрационными данными. Запускается только
// вручную; в production требует флага -force.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/config"
	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/service"
)

// catalog описывает операции сервиса, нужные для заполнения данных.
type catalog interface {
	Signup(ctx context.Context, in model.NewUser) (*model.User, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error)
	CreateCustomer(ctx context.Context, in model.NewCustomer) (*model.Customer, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
}

type seedOptions struct {
	AdminUsername string
	AdminPassword string
}

func ptr[T any](v T) *T { return &v }

var sampleProducts = []model.NewProduct{
	{Name: "Starfall Odyssey", Description: ptr("Open-world space exploration game"), Category: model.CategoryGame, Price: 59.99, Stock: ptr[int64](25)},
	{Name: "Dungeon Forge", Description: ptr("Co-op dungeon crawler"), Category: model.CategoryGame, Price: 29.99, Stock: ptr[int64](40)},
	{Name: "PixelPro Studio", Description: ptr("Raster and vector image editor"), Category: model.CategorySoftware, Price: 149.00, Stock: ptr[int64](15)},
	{Name: "CodeNest IDE", Description: ptr("Lightweight IDE for laptop and desktop"), Category: model.CategorySoftware, Price: 89.50, Stock: ptr[int64](30)},
	{Name: "DiskSweep", Description: ptr("Disk cleanup utility"), Category: model.CategoryUtility, Price: 19.99, Stock: ptr[int64](100)},
	{Name: "VaultKey", Description: ptr("Password manager"), Category: model.CategoryUtility, Price: 24.99, Stock: ptr[int64](60)},
}

var sampleCustomers = []model.NewCustomer{
	{Name: "Maria Garcia", Email: "maria.garcia@example.com", Phone: ptr("555-0101"), Address: ptr("12 Elm Street")},
	{Name: "James Smith", Email: "james.smith@example.com", Phone: ptr("555-0102")},
	{Name: "Lena Novak", Email: "lena.novak@example.com"},
}

// seed создаёт администратора и, если каталог пуст, демонстрационные товары,
// покупателей и заказы. Повторный запуск не дублирует данные.
func seed(ctx context.Context, svc catalog, opts seedOptions, logger *zap.SugaredLogger) error {
	_, err := svc.Signup(ctx, model.NewUser{
		Username: opts.AdminUsername,
		Password: opts.AdminPassword,
		Name:     "Alex Johnson",
		Role:     "Administrator",
	})
	switch {
	case errors.Is(err, repository.ErrUserExists):
		logger.Infow("admin user already exists", "username", opts.AdminUsername)
	case err != nil:
		return fmt.Errorf("create admin user: %w", err)
	default:
		logger.Infow("admin user created", "username", opts.AdminUsername)
	}

	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		logger.Infow("catalog is not empty, skipping sample data", "products", len(existing))
		return nil
	}

	products := make([]*model.Product, 0, len(sampleProducts))
	for _, in := range sampleProducts {
		p, err := svc.CreateProduct(ctx, in)
		if err != nil {
			return fmt.Errorf("create product %q: %w", in.Name, err)
		}
		products = append(products, p)
	}

	customers := make([]*model.Customer, 0, len(sampleCustomers))
	for _, in := range sampleCustomers {
		c, err := svc.CreateCustomer(ctx, in)
		if err != nil {
			return fmt.Errorf("create customer %q: %w", in.Email, err)
		}
		customers = append(customers, c)
	}

	orders := []struct {
		customer int
		items    []model.NewOrderItem
		status   model.OrderStatus
	}{
		{customer: 0, items: []model.NewOrderItem{{ProductID: products[0].ID, Quantity: 1}, {ProductID: products[4].ID, Quantity: 2}}, status: model.OrderStatusCompleted},
		{customer: 1, items: []model.NewOrderItem{{ProductID: products[2].ID, Quantity: 1}}, status: model.OrderStatusProcessing},
		{customer: 2, items: []model.NewOrderItem{{ProductID: products[1].ID, Quantity: 3}}, status: model.OrderStatusPending},
	}

	for _, o := range orders {
		order, err := svc.CreateOrder(ctx, model.OrderRequest{
			Order: model.OrderDraft{CustomerID: customers[o.customer].ID},
			Items: o.items,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if o.status != order.Status {
			if _, err := svc.UpdateOrderStatus(ctx, order.ID, o.status); err != nil {
				return fmt.Errorf("update order %d status: %w", order.ID, err)
			}
		}
	}

	logger.Infow("sample data created",
		"products", len(products),
		"customers", len(customers),
		"orders", len(orders),
	)
	return nil
}

func main() {
	force := flag.Bool("force", false, "allow seeding when APP_ENV=production")
	adminUsername := flag.String("admin-username", "admin", "username of the seeded admin")
	adminPassword := flag.String("admin-password", "admin123", "password of the seeded admin")

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	sugar := logger.Sugar()

	if cfg.Production() && !*force {
		sugar.Fatalw("refusing to seed a production database without -force")
	}
	if cfg.DatabaseURI == "" {
		sugar.Fatalw("configuration error", "error", "DATABASE_URI is required")
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, repository.Options{
		StockPolicy: cfg.StockPolicy,
		TieBreak:    cfg.RankingTieBreak,
	})
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, nil, logger.Named("service"), service.Options{BcryptCost: cfg.BcryptCost})
	defer svc.Close()

	opts := seedOptions{AdminUsername: *adminUsername, AdminPassword: *adminPassword}
	if err := seed(context.Background(), svc, opts, sugar); err != nil {
		sugar.Fatalw("seeding failed", "error", err.Error())
	}
}

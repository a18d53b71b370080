package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func catPtr(v model.Category) *model.Category { return &v }

func seedProduct(t *testing.T, s *Store, name string, category model.Category, price float64, stock int64) *model.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), model.NewProduct{
		Name:     name,
		Category: category,
		Price:    price,
		Stock:    int64Ptr(stock),
	})
	require.NoError(t, err)
	return p
}

func seedCustomer(t *testing.T, s *Store, email string) *model.Customer {
	t.Helper()
	c, err := s.CreateCustomer(context.Background(), model.NewCustomer{Name: "Customer " + email, Email: email})
	require.NoError(t, err)
	return c
}

func TestCreatedIDsAreUniqueAndStable(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		p := seedProduct(t, s, "p", model.CategoryGame, 1, 1)
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEmptyPatchLeavesRecordUnchanged(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	c := seedCustomer(t, s, "ann@example.com")
	updated, err := s.UpdateCustomer(ctx, c.ID, model.CustomerPatch{})
	require.NoError(t, err)
	assert.Equal(t, c, updated)

	p := seedProduct(t, s, "Game", model.CategoryGame, 10, 3)
	updatedProduct, err := s.UpdateProduct(ctx, p.ID, model.ProductPatch{})
	require.NoError(t, err)
	assert.Equal(t, p, updatedProduct)
}

func TestPatchMergesFields(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	p := seedProduct(t, s, "Game", model.CategoryGame, 10, 3)
	updated, err := s.UpdateProduct(ctx, p.ID, model.ProductPatch{
		Description: strPtr("new"),
		Category:    catPtr(model.CategorySoftware),
	})
	require.NoError(t, err)
	assert.Equal(t, "Game", updated.Name)
	assert.Equal(t, "new", *updated.Description)
	assert.Equal(t, model.CategorySoftware, updated.Category)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = s.UpdateProduct(ctx, 999, model.ProductPatch{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteThenGet(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	c := seedCustomer(t, s, "ann@example.com")

	ok, err := s.DeleteCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ok, err = s.DeleteCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicateEmailRejected(t *testing.T) {
	s := New(repository.Options{})
	seedCustomer(t, s, "ann@example.com")

	_, err := s.CreateCustomer(context.Background(), model.NewCustomer{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, repository.ErrCustomerExists)
}

func TestEmailUniquenessIgnoresCase(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	seedCustomer(t, s, "Bob@Example.com")
	other := seedCustomer(t, s, "ann@example.com")

	_, err := s.CreateCustomer(ctx, model.NewCustomer{Name: "Bob", Email: "bob@example.com"})
	assert.ErrorIs(t, err, repository.ErrCustomerExists)

	_, err = s.UpdateCustomer(ctx, other.ID, model.CustomerPatch{Email: strPtr("BOB@EXAMPLE.COM")})
	assert.ErrorIs(t, err, repository.ErrCustomerExists)

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 2)
}

func TestCreateOrderCreatesItemsAndDecrementsStock(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	c := seedCustomer(t, s, "ann@example.com")
	game := seedProduct(t, s, "Game", model.CategoryGame, 19.99, 10)
	tool := seedProduct(t, s, "Tool", model.CategoryUtility, 5, 4)

	order, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID: c.ID,
		Items: []model.NewOrderItem{
			{ProductID: game.ID, Quantity: 2},
			{ProductID: tool.ID, Quantity: 3},
		},
		PurchaseActivity: func(o model.Order) model.NewActivity {
			return model.NewActivity{CustomerID: o.CustomerID, Type: model.ActivityPurchase, Description: "bought"}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.InDelta(t, 54.98, order.Total, 1e-9)

	details, err := s.GetOrderWithDetails(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, details.Items, 2)
	for _, it := range details.Items {
		assert.Equal(t, order.ID, it.OrderID)
	}

	g, _ := s.GetProduct(ctx, game.ID)
	tl, _ := s.GetProduct(ctx, tool.ID)
	assert.EqualValues(t, 8, g.Stock)
	assert.EqualValues(t, 1, tl.Stock)

	activities, err := s.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityPurchase, activities[0].Type)
}

func TestCreateOrderStockPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("reject leaves state untouched", func(t *testing.T) {
		s := New(repository.Options{StockPolicy: model.StockPolicyReject})
		c := seedCustomer(t, s, "ann@example.com")
		a := seedProduct(t, s, "A", model.CategoryGame, 1, 5)
		b := seedProduct(t, s, "B", model.CategoryGame, 1, 1)

		_, err := s.CreateOrder(ctx, model.NewOrder{
			CustomerID: c.ID,
			Items: []model.NewOrderItem{
				{ProductID: a.ID, Quantity: 1},
				{ProductID: b.ID, Quantity: 2},
			},
		})
		require.ErrorIs(t, err, repository.ErrInsufficientStock)

		got, _ := s.GetProduct(ctx, a.ID)
		assert.EqualValues(t, 5, got.Stock)
		orders, _ := s.ListOrders(ctx)
		assert.Empty(t, orders)
	})

	t.Run("allow negative", func(t *testing.T) {
		s := New(repository.Options{StockPolicy: model.StockPolicyAllowNegative})
		c := seedCustomer(t, s, "ann@example.com")
		p := seedProduct(t, s, "A", model.CategoryGame, 1, 1)

		_, err := s.CreateOrder(ctx, model.NewOrder{
			CustomerID: c.ID,
			Items:      []model.NewOrderItem{{ProductID: p.ID, Quantity: 3}},
		})
		require.NoError(t, err)

		got, _ := s.GetProduct(ctx, p.ID)
		assert.EqualValues(t, -2, got.Stock)
	})

	t.Run("missing product", func(t *testing.T) {
		s := New(repository.Options{})
		c := seedCustomer(t, s, "ann@example.com")

		_, err := s.CreateOrder(ctx, model.NewOrder{
			CustomerID: c.ID,
			Items:      []model.NewOrderItem{{ProductID: 42, Quantity: 1}},
		})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestCreateOrderPaymentIntentUsedOnce(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	c := seedCustomer(t, s, "ann@example.com")
	p := seedProduct(t, s, "A", model.CategoryGame, 1, 10)

	in := model.NewOrder{
		CustomerID:      c.ID,
		Items:           []model.NewOrderItem{{ProductID: p.ID, Quantity: 1}},
		PaymentIntentID: strPtr("pi_1"),
	}
	_, err := s.CreateOrder(ctx, in)
	require.NoError(t, err)

	_, err = s.CreateOrder(ctx, in)
	require.ErrorIs(t, err, repository.ErrPaymentAlreadyUsed)
}

func TestCreateOrderChecksPaidAmount(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	c := seedCustomer(t, s, "ann@example.com")
	p := seedProduct(t, s, "A", model.CategoryGame, 19.99, 10)

	_, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID:      c.ID,
		Status:          model.OrderStatusCompleted,
		Items:           []model.NewOrderItem{{ProductID: p.ID, Quantity: 2}},
		PaymentIntentID: strPtr("pi_short"),
		PaidCents:       int64Ptr(3997),
	})
	require.ErrorIs(t, err, repository.ErrPaymentShortfall)

	got, _ := s.GetProduct(ctx, p.ID)
	assert.EqualValues(t, 10, got.Stock)
	orders, _ := s.ListOrders(ctx)
	assert.Empty(t, orders)

	order, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID:      c.ID,
		Status:          model.OrderStatusCompleted,
		Items:           []model.NewOrderItem{{ProductID: p.ID, Quantity: 2}},
		PaymentIntentID: strPtr("pi_exact"),
		PaidCents:       int64Ptr(3998),
		PurchaseActivity: func(o model.Order) model.NewActivity {
			return model.NewActivity{CustomerID: o.CustomerID, Type: model.ActivityPurchase, Description: "bought"}
		},
		CompletedActivity: func(o model.Order) model.NewActivity {
			return model.NewActivity{CustomerID: o.CustomerID, Type: model.ActivityOrderCompleted, Description: "done"}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)

	activities, err := s.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, model.ActivityPurchase, activities[0].Type)
	assert.Equal(t, model.ActivityOrderCompleted, activities[1].Type)
}

func TestUpdateOrderStatusIsConditional(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	c := seedCustomer(t, s, "ann@example.com")
	p := seedProduct(t, s, "A", model.CategoryGame, 1, 10)

	order, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID: c.ID,
		Items:      []model.NewOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	activity := &model.NewActivity{CustomerID: c.ID, Type: model.ActivityOrderCompleted, Description: "done"}
	updated, err := s.UpdateOrderStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusCompleted, activity)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, updated.Status)

	_, err = s.UpdateOrderStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled, nil)
	require.ErrorIs(t, err, repository.ErrStatusConflict)

	activities, _ := s.ListActivities(ctx)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityOrderCompleted, activities[0].Type)
	assert.Equal(t, c.ID, activities[0].CustomerID)
}

func TestDashboardMetrics(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now.Add(-60 * 24 * time.Hour) })
	old := seedCustomer(t, s, "old@example.com")
	s.SetClock(func() time.Time { return now })
	seedCustomer(t, s, "new@example.com")

	a := seedProduct(t, s, "A", model.CategoryGame, 19.99, 100)
	b := seedProduct(t, s, "B", model.CategorySoftware, 5, 100)
	c := seedProduct(t, s, "C", model.CategoryUtility, 100, 100)

	create := func(productID int64) *model.Order {
		o, err := s.CreateOrder(ctx, model.NewOrder{
			CustomerID: old.ID,
			Items:      []model.NewOrderItem{{ProductID: productID, Quantity: 1}},
		})
		require.NoError(t, err)
		return o
	}

	for _, o := range []*model.Order{create(a.ID), create(b.ID)} {
		_, err := s.UpdateOrderStatus(ctx, o.ID, model.OrderStatusPending, model.OrderStatusCompleted, nil)
		require.NoError(t, err)
	}
	create(c.ID)

	m, err := s.GetDashboardMetrics(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 24.99, m.TotalSales, 1e-9)
	assert.EqualValues(t, 1, m.PendingOrders)
	assert.EqualValues(t, 1, m.NewCustomers)
	assert.Equal(t, model.TopProduct{Name: "A", UnitsSold: 1}, m.TopProduct)
}

func TestDashboardMetricsWithoutSales(t *testing.T) {
	s := New(repository.Options{})

	m, err := s.GetDashboardMetrics(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.TopProduct{Name: model.NoTopProductName}, m.TopProduct)
	assert.Zero(t, m.TotalSales)
}

func TestCategoryStatsIncludeEmptyCategories(t *testing.T) {
	s := New(repository.Options{})
	seedProduct(t, s, "A", model.CategoryGame, 1, 1)
	seedProduct(t, s, "B", model.CategoryGame, 1, 1)
	seedProduct(t, s, "C", model.CategorySoftware, 1, 1)

	stats, err := s.GetProductCategoryStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ProductCategoryStat{
		{Category: model.CategoryGame, Percent: 67},
		{Category: model.CategorySoftware, Percent: 33},
		{Category: model.CategoryUtility, Percent: 0},
	}, stats)
}

func TestPopularProductsPlaceholderAndTieBreak(t *testing.T) {
	ctx := context.Background()
	s := New(repository.Options{TieBreak: model.TieBreakName})
	c := seedCustomer(t, s, "ann@example.com")
	zeta := seedProduct(t, s, "Zeta", model.CategoryGame, 1, 10)
	alpha := seedProduct(t, s, "Alpha", model.CategoryGame, 1, 10)
	gone := seedProduct(t, s, "Gone", model.CategoryUtility, 1, 10)

	_, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID: c.ID,
		Items: []model.NewOrderItem{
			{ProductID: zeta.ID, Quantity: 2},
			{ProductID: alpha.ID, Quantity: 2},
			{ProductID: gone.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	_, err = s.DeleteProduct(ctx, gone.ID)
	require.NoError(t, err)

	popular, err := s.GetPopularProducts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, popular, 3)
	assert.Equal(t, "Alpha", popular[0].Name)
	assert.Equal(t, "Zeta", popular[1].Name)
	assert.Equal(t, model.PopularProduct{ID: gone.ID, Name: model.UnknownProductName, Sales: 1, Category: model.UnknownCategory}, popular[2])
}

func TestOrderDetailsUsePlaceholders(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	c := seedCustomer(t, s, "ann@example.com")
	p := seedProduct(t, s, "A", model.CategoryGame, 1, 10)

	o, err := s.CreateOrder(ctx, model.NewOrder{
		CustomerID: c.ID,
		Items:      []model.NewOrderItem{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, _ = s.DeleteCustomer(ctx, c.ID)
	_, _ = s.DeleteProduct(ctx, p.ID)

	d, err := s.GetOrderWithDetails(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UnknownCustomerName, d.Customer.Name)
	require.Len(t, d.Items, 1)
	assert.Equal(t, model.UnknownProductName, d.Items[0].Product.Name)

	_, err = s.GetOrderWithDetails(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecentOrdersAndActivities(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()
	c := seedCustomer(t, s, "ann@example.com")
	p := seedProduct(t, s, "A", model.CategoryGame, 1, 10)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		s.SetClock(func() time.Time { return at })
		_, err := s.CreateOrder(ctx, model.NewOrder{
			CustomerID: c.ID,
			Items:      []model.NewOrderItem{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		_, err = s.CreateActivity(ctx, model.NewActivity{CustomerID: c.ID, Type: model.ActivityOther, Description: "x"})
		require.NoError(t, err)
	}

	orders, err := s.GetRecentOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.EqualValues(t, 4, orders[0].ID)
	assert.EqualValues(t, 3, orders[1].ID)
	assert.Equal(t, c.Name, orders[0].Customer.Name)

	activities, err := s.GetRecentActivities(ctx, 3)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.EqualValues(t, 4, activities[0].ID)
	assert.Equal(t, c.Email, activities[0].Customer.Email)
}

func TestSearch(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, model.NewProduct{Name: "Gaming LAPTOP", Category: model.CategorySoftware})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, model.NewProduct{Name: "Bag", Description: strPtr("fits any laptop"), Category: model.CategoryUtility})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, model.NewProduct{Name: "Mouse", Category: model.CategoryUtility})
	require.NoError(t, err)

	found, err := s.SearchProducts(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Gaming LAPTOP", found[0].Name)
	assert.Equal(t, "Bag", found[1].Name)

	_, err = s.CreateCustomer(ctx, model.NewCustomer{Name: "Ann", Email: "ann@example.com", Phone: strPtr("+1 555 0100")})
	require.NoError(t, err)

	byPhone, err := s.SearchCustomers(ctx, "555")
	require.NoError(t, err)
	assert.Len(t, byPhone, 1)

	byCategory, err := s.ListProductsByCategory(ctx, model.CategoryUtility)
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)
}

func TestUsers(t *testing.T) {
	s := New(repository.Options{})
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Username: "admin", PasswordHash: "h", Name: "Admin", Role: "admin"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, model.User{Username: "admin", PasswordHash: "h2", Name: "Other", Role: "admin"})
	require.ErrorIs(t, err, repository.ErrUserExists)

	got, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUser(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Package memstore содержит хранилище в памяти с тем же контрактом, что и
// repository.PostgresRepository. Используется в тестах.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
)

// Store реализует потокобезопасное хранилище в памяти.
type Store struct {
	mu   sync.RWMutex
	opts repository.Options
	now  func() time.Time

	customers  map[int64]model.Customer
	products   map[int64]model.Product
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	activities map[int64]model.Activity
	users      map[int64]model.User

	nextID map[string]int64
}

// New создаёт пустое хранилище.
func New(opts repository.Options) *Store {
	if opts.StockPolicy == "" {
		opts.StockPolicy = model.StockPolicyReject
	}
	if opts.TieBreak == "" {
		opts.TieBreak = model.TieBreakID
	}

	return &Store{
		opts:       opts,
		now:        time.Now,
		customers:  make(map[int64]model.Customer),
		products:   make(map[int64]model.Product),
		orders:     make(map[int64]model.Order),
		orderItems: make(map[int64]model.OrderItem),
		activities: make(map[int64]model.Activity),
		users:      make(map[int64]model.User),
		nextID:     make(map[string]int64),
	}
}

// SetClock подменяет источник времени для записей, создаваемых хранилищем.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Close ничего не делает.
func (s *Store) Close() error { return nil }

// Ping всегда успешен.
func (s *Store) Ping(context.Context) error { return nil }

func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	res := make([]T, 0, len(ids))
	for _, id := range ids {
		res = append(res, m[id])
	}
	return res
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListCustomers возвращает всех покупателей.
func (s *Store) ListCustomers(context.Context) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.customers), nil
}

// GetCustomer возвращает покупателя по идентификатору.
func (s *Store) GetCustomer(_ context.Context, id int64) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, repository.ErrNotFound)
	}
	return &c, nil
}

// GetCustomerByEmail ищет покупателя по email без учёта регистра.
func (s *Store) GetCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range sortedValues(s.customers) {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customer %q: %w", email, repository.ErrNotFound)
}

func (s *Store) emailTaken(email string, except int64) bool {
	for id, c := range s.customers {
		if id != except && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

// CreateCustomer создаёт покупателя.
func (s *Store) CreateCustomer(_ context.Context, in model.NewCustomer) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(in.Email, 0) {
		return nil, fmt.Errorf("%w: %s", repository.ErrCustomerExists, in.Email)
	}

	c := model.Customer{
		ID:        s.id("customers"),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: s.now(),
	}
	s.customers[c.ID] = c
	return &c, nil
}

// UpdateCustomer применяет частичное обновление покупателя.
func (s *Store) UpdateCustomer(_ context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, repository.ErrNotFound)
	}

	if patch.Email != nil && s.emailTaken(*patch.Email, id) {
		return nil, repository.ErrCustomerExists
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = patch.Phone
	}
	if patch.Address != nil {
		c.Address = patch.Address
	}

	s.customers[id] = c
	return &c, nil
}

// DeleteCustomer удаляет покупателя.
func (s *Store) DeleteCustomer(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return false, nil
	}
	delete(s.customers, id)
	return true, nil
}

// SearchCustomers ищет подстроку в имени, email и телефоне.
func (s *Store) SearchCustomers(_ context.Context, query string) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []model.Customer{}
	for _, c := range sortedValues(s.customers) {
		if containsFold(c.Name, query) || containsFold(c.Email, query) || containsFold(deref(c.Phone), query) {
			res = append(res, c)
		}
	}
	return res, nil
}

// ListProducts возвращает весь каталог.
func (s *Store) ListProducts(context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.products), nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Store) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

// CreateProduct создаёт товар.
func (s *Store) CreateProduct(_ context.Context, in model.NewProduct) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Product{
		ID:          s.id("products"),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Image:       in.Image,
		CreatedAt:   s.now(),
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	s.products[p.ID] = p
	return &p, nil
}

// UpdateProduct применяет частичное обновление товара.
func (s *Store) UpdateProduct(_ context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = patch.Image
	}

	s.products[id] = p
	return &p, nil
}

// DeleteProduct удаляет товар.
func (s *Store) DeleteProduct(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

// SearchProducts ищет подстроку в названии и описании.
func (s *Store) SearchProducts(_ context.Context, query string) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []model.Product{}
	for _, p := range sortedValues(s.products) {
		if containsFold(p.Name, query) || containsFold(deref(p.Description), query) {
			res = append(res, p)
		}
	}
	return res, nil
}

// ListProductsByCategory возвращает товары указанной категории.
func (s *Store) ListProductsByCategory(_ context.Context, category model.Category) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []model.Product{}
	for _, p := range sortedValues(s.products) {
		if p.Category == category {
			res = append(res, p)
		}
	}
	return res, nil
}

// ListOrders возвращает все заказы.
func (s *Store) ListOrders(context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.orders), nil
}

// ListOrdersByCustomer возвращает заказы покупателя, новые первыми.
func (s *Store) ListOrdersByCustomer(_ context.Context, customerID int64) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []model.Order{}
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			res = append(res, o)
		}
	}
	sortOrdersDesc(res)
	return res, nil
}

func sortOrdersDesc(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
}

// GetOrder возвращает заказ без деталей.
func (s *Store) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrNotFound)
	}
	return &o, nil
}

// GetOrderWithDetails возвращает заказ с покупателем и строками.
func (s *Store) GetOrderWithDetails(_ context.Context, id int64) (*model.OrderWithDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrNotFound)
	}
	return s.details(o), nil
}

func (s *Store) details(o model.Order) *model.OrderWithDetails {
	customer, ok := s.customers[o.CustomerID]
	if !ok {
		customer = model.PlaceholderCustomer(o.CustomerID)
	}

	items := []model.OrderItemWithProduct{}
	for _, it := range sortedValues(s.orderItems) {
		if it.OrderID != o.ID {
			continue
		}
		product, ok := s.products[it.ProductID]
		if !ok {
			product = model.PlaceholderProduct(it.ProductID)
		}
		items = append(items, model.OrderItemWithProduct{OrderItem: it, Product: product})
	}

	return &model.OrderWithDetails{Order: o, Customer: customer, Items: items}
}

// CreateOrder атомарно создаёт заказ, строки, списывает остатки и пишет журнал.
// При ошибке состояние хранилища не меняется.
func (s *Store) CreateOrder(_ context.Context, in model.NewOrder) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.PaymentIntentID != nil {
		for _, o := range s.orders {
			if o.PaymentIntentID != nil && *o.PaymentIntentID == *in.PaymentIntentID {
				return nil, repository.ErrPaymentAlreadyUsed
			}
		}
	}

	qty := make(map[int64]int64, len(in.Items))
	for _, line := range in.Items {
		qty[line.ProductID] += line.Quantity
	}
	for id, q := range qty {
		p, ok := s.products[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
		}
		if s.opts.StockPolicy == model.StockPolicyReject && p.Stock < q {
			return nil, fmt.Errorf("product %d: %w", id, repository.ErrInsufficientStock)
		}
	}

	status := in.Status
	if status == "" {
		status = model.OrderStatusPending
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		items = append(items, model.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     s.products[line.ProductID].Price,
		})
	}

	total := model.OrderTotal(items)
	if in.PaidCents != nil && model.ToCents(total) > *in.PaidCents {
		return nil, fmt.Errorf("order total %.2f, paid %d: %w", total, *in.PaidCents, repository.ErrPaymentShortfall)
	}

	order := model.Order{
		ID:              s.id("orders"),
		CustomerID:      in.CustomerID,
		OrderDate:       s.now(),
		Status:          status,
		Total:           total,
		PaymentIntentID: in.PaymentIntentID,
	}

	for i := range items {
		items[i].ID = s.id("order_items")
		items[i].OrderID = order.ID
		s.orderItems[items[i].ID] = items[i]
	}

	for id, q := range qty {
		p := s.products[id]
		p.Stock -= q
		s.products[id] = p
	}

	s.orders[order.ID] = order

	for _, activity := range []func(model.Order) model.NewActivity{in.PurchaseActivity, in.CompletedActivity} {
		if activity != nil {
			s.insertActivity(activity(order))
		}
	}

	return &order, nil
}

// UpdateOrderStatus переводит заказ из статуса from в статус to.
func (s *Store) UpdateOrderStatus(
	_ context.Context,
	id int64,
	from, to model.OrderStatus,
	activity *model.NewActivity,
) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrNotFound)
	}
	if o.Status != from {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrStatusConflict)
	}

	o.Status = to
	s.orders[id] = o

	if activity != nil {
		s.insertActivity(*activity)
	}
	return &o, nil
}

// GetRecentOrders возвращает последние limit заказов с деталями.
func (s *Store) GetRecentOrders(_ context.Context, limit int) ([]model.OrderWithDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := sortedValues(s.orders)
	sortOrdersDesc(orders)
	if len(orders) > limit {
		orders = orders[:limit]
	}

	res := make([]model.OrderWithDetails, 0, len(orders))
	for _, o := range orders {
		res = append(res, *s.details(o))
	}
	return res, nil
}

func (s *Store) insertActivity(in model.NewActivity) model.Activity {
	a := model.Activity{
		ID:          s.id("activities"),
		CustomerID:  in.CustomerID,
		Type:        in.Type,
		Description: in.Description,
		Timestamp:   s.now(),
		Metadata:    in.Metadata,
	}
	s.activities[a.ID] = a
	return a
}

// ListActivities возвращает весь журнал активности.
func (s *Store) ListActivities(context.Context) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.activities), nil
}

// CreateActivity добавляет запись в журнал.
func (s *Store) CreateActivity(_ context.Context, in model.NewActivity) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.insertActivity(in)
	return &a, nil
}

// GetRecentActivities возвращает последние limit записей журнала с покупателями.
func (s *Store) GetRecentActivities(_ context.Context, limit int) ([]model.ActivityWithCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := sortedValues(s.activities)
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].Timestamp.Equal(activities[j].Timestamp) {
			return activities[i].Timestamp.After(activities[j].Timestamp)
		}
		return activities[i].ID > activities[j].ID
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}

	res := make([]model.ActivityWithCustomer, 0, len(activities))
	for _, a := range activities {
		customer, ok := s.customers[a.CustomerID]
		if !ok {
			customer = model.PlaceholderCustomer(a.CustomerID)
		}
		res = append(res, model.ActivityWithCustomer{Activity: a, Customer: customer})
	}
	return res, nil
}

// GetDashboardMetrics считает показатели панели управления.
func (s *Store) GetDashboardMetrics(_ context.Context, since time.Time) (*model.DashboardMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		m      model.DashboardMetrics
		totals []float64
	)
	for _, o := range sortedValues(s.orders) {
		switch o.Status {
		case model.OrderStatusCompleted:
			totals = append(totals, o.Total)
		case model.OrderStatusPending:
			m.PendingOrders++
		}
	}
	m.TotalSales = model.SumMoney(totals...)

	for _, c := range s.customers {
		if c.CreatedAt.After(since) {
			m.NewCustomers++
		}
	}

	m.TopProduct = model.TopProduct{Name: model.NoTopProductName}
	if top := s.popular(1); len(top) > 0 {
		m.TopProduct = model.TopProduct{Name: top[0].Name, UnitsSold: top[0].Sales}
	}

	return &m, nil
}

// GetProductCategoryStats возвращает доли категорий в каталоге.
func (s *Store) GetProductCategoryStats(context.Context) ([]model.ProductCategoryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.Category]int64, len(model.Categories))
	for _, p := range s.products {
		counts[p.Category]++
	}
	return model.CategoryStats(counts), nil
}

// GetPopularProducts возвращает limit самых продаваемых товаров.
func (s *Store) GetPopularProducts(_ context.Context, limit int) ([]model.PopularProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.popular(limit), nil
}

func (s *Store) popular(limit int) []model.PopularProduct {
	sales := make(map[int64]int64)
	for _, it := range s.orderItems {
		sales[it.ProductID] += it.Quantity
	}

	res := make([]model.PopularProduct, 0, len(sales))
	for id, n := range sales {
		pp := model.PopularProduct{ID: id, Name: model.UnknownProductName, Category: model.UnknownCategory, Sales: n}
		if p, ok := s.products[id]; ok {
			pp.Name = p.Name
			pp.Category = string(p.Category)
		}
		res = append(res, pp)
	}

	model.SortPopular(res, s.opts.TieBreak)
	if len(res) > limit {
		res = res[:limit]
	}
	return res
}

// CreateUser создаёт пользователя.
func (s *Store) CreateUser(_ context.Context, u model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return nil, fmt.Errorf("%w: %s", repository.ErrUserExists, u.Username)
		}
	}

	u.ID = s.id("users")
	s.users[u.ID] = u
	return &u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	return &u, nil
}

// GetUserByUsername возвращает пользователя по логину.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
}

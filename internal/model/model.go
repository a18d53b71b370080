// Package model содержит доменные сущности магазина DivineShop.
package model

import "time"

// Category описывает категорию товара.
type Category string

const (
	CategoryGame     Category = "game"
	CategorySoftware Category = "software"
	CategoryUtility  Category = "utility"
)

// Categories перечисляет все категории каталога в фиксированном порядке.
var Categories = []Category{CategoryGame, CategorySoftware, CategoryUtility}

// Valid сообщает, входит ли значение в перечень категорий.
func (c Category) Valid() bool {
	switch c {
	case CategoryGame, CategorySoftware, CategoryUtility:
		return true
	}
	return false
}

// ActivityType описывает тип записи в журнале активности клиента.
type ActivityType string

const (
	ActivityAccountCreated ActivityType = "account_created"
	ActivityPurchase       ActivityType = "purchase"
	ActivityPaymentUpdated ActivityType = "payment_updated"
	ActivityOrderCompleted ActivityType = "order_completed"
	ActivityOther          ActivityType = "other"
)

// Customer представляет покупателя магазина.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCustomer содержит поля, из которых создаётся покупатель.
type NewCustomer struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// CustomerPatch описывает частичное обновление покупателя. Nil-поля не меняются.
type CustomerPatch struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// Product представляет товар каталога.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	Stock       int64     `json:"stock"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewProduct содержит поля, из которых создаётся товар.
type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Category    Category `json:"category" validate:"required,oneof=game software utility"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       *int64   `json:"stock" validate:"omitempty,gte=0"`
	Image       *string  `json:"image"`
}

// ProductPatch описывает частичное обновление товара.
type ProductPatch struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	Category    *Category `json:"category" validate:"omitempty,oneof=game software utility"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Stock       *int64    `json:"stock" validate:"omitempty,gte=0"`
	Image       *string   `json:"image"`
}

// Order описывает заказ покупателя.
type Order struct {
	ID              int64       `json:"id"`
	CustomerID      int64       `json:"customerId"`
	OrderDate       time.Time   `json:"orderDate"`
	Status          OrderStatus `json:"status"`
	Total           float64     `json:"total"`
	PaymentIntentID *string     `json:"paymentIntentId,omitempty"`
}

// OrderItem описывает строку заказа с ценой на момент покупки.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"orderId"`
	ProductID int64   `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// NewOrderItem описывает строку создаваемого заказа. Цена берётся из каталога.
type NewOrderItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// NewOrder содержит всё, что нужно хранилищу для атомарного создания заказа.
type NewOrder struct {
	CustomerID      int64
	Status          OrderStatus
	Items           []NewOrderItem
	PaymentIntentID *string

	// PaidCents, если задан, ограничивает итог заказа оплаченной суммой в
	// минимальных единицах валюты. Итог сверяется внутри транзакции создания.
	PaidCents *int64

	// PurchaseActivity, если задан, вызывается внутри той же транзакции после
	// вставки заказа; возвращённая запись журнала сохраняется вместе с заказом.
	PurchaseActivity func(Order) NewActivity
	// CompletedActivity сохраняется следом за PurchaseActivity. Задаётся для
	// заказов, создаваемых сразу завершёнными.
	CompletedActivity func(Order) NewActivity
}

// OrderItemWithProduct содержит строку заказа вместе с товаром.
type OrderItemWithProduct struct {
	OrderItem
	Product Product `json:"product"`
}

// OrderWithDetails содержит заказ с покупателем и строками.
type OrderWithDetails struct {
	Order
	Customer Customer               `json:"customer"`
	Items    []OrderItemWithProduct `json:"items"`
}

// Activity описывает запись журнала активности покупателя. Не изменяется после создания.
type Activity struct {
	ID          int64        `json:"id"`
	CustomerID  int64        `json:"customerId"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Metadata    *string      `json:"metadata"`
}

// NewActivity содержит поля создаваемой записи журнала.
type NewActivity struct {
	CustomerID  int64        `json:"customerId" validate:"required,gt=0"`
	Type        ActivityType `json:"type" validate:"required,oneof=account_created purchase payment_updated order_completed other"`
	Description string       `json:"description" validate:"required"`
	Metadata    *string      `json:"metadata"`
}

// ActivityWithCustomer содержит запись журнала вместе с покупателем.
type ActivityWithCustomer struct {
	Activity
	Customer Customer `json:"customer"`
}

// User описывает учётную запись CRM или покупателя.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Avatar       *string `json:"avatar"`
}

// NewUser содержит поля регистрации пользователя.
type NewUser struct {
	Username string  `json:"username" validate:"required,min=3"`
	Password string  `json:"password" validate:"required,min=6"`
	Name     string  `json:"name" validate:"required"`
	Role     string  `json:"role"`
	Avatar   *string `json:"avatar"`
}

// TopProduct описывает самый продаваемый товар.
type TopProduct struct {
	Name      string `json:"name"`
	UnitsSold int64  `json:"unitsSold"`
}

// DashboardMetrics содержит сводные показатели панели управления.
type DashboardMetrics struct {
	TotalSales    float64    `json:"totalSales"`
	NewCustomers  int64      `json:"newCustomers"`
	PendingOrders int64      `json:"pendingOrders"`
	TopProduct    TopProduct `json:"topProduct"`
}

// ProductCategoryStat содержит долю категории в каталоге, в процентах.
type ProductCategoryStat struct {
	Category Category `json:"category"`
	Percent  int64    `json:"percentage"`
}

// PopularProduct содержит товар с суммарным количеством проданных единиц.
type PopularProduct struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Sales    int64  `json:"sales"`
	Category string `json:"category"`
}

// OrderDraft описывает заказ в теле запроса. Total, если передан, только сверяется
// с суммой, посчитанной сервером.
type OrderDraft struct {
	CustomerID int64       `json:"customerId"`
	Status     OrderStatus `json:"status" validate:"omitempty,oneof=pending processing"`
	Total      *float64    `json:"total"`
}

// OrderRequest описывает тело запроса на создание заказа.
type OrderRequest struct {
	Order OrderDraft     `json:"order"`
	Items []NewOrderItem `json:"items" validate:"required,min=1,dive"`
}

// StatusRequest описывает тело запроса на смену статуса заказа.
type StatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending processing completed failed cancelled"`
}

// Credentials содержит логин и пароль пользователя.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PaymentIntentRequest содержит сумму платежа в основных единицах валюты.
type PaymentIntentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// CheckoutRequest описывает тело запроса на оформление оплаченного заказа.
type CheckoutRequest struct {
	PaymentIntentID string         `json:"paymentIntentId" validate:"required"`
	Order           OrderDraft     `json:"order"`
	Items           []NewOrderItem `json:"items" validate:"required,min=1,dive"`
	Customer        *NewCustomer   `json:"customer"`
}

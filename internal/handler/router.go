package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/divineshop/internal/middleware"
)

// SetupRouter собирает маршруты API под префиксом /api.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(h.authMiddleware.Middleware)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/create-payment-intent", h.CreatePaymentIntent)
			r.Post("/confirm-order", h.ConfirmOrder)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/products/category/{category}", h.ListProductsByCategory)
		r.Get("/products/search/{query}", h.SearchProducts)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireAuth)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/customers", h.ListCustomers)
			r.Post("/customers", h.CreateCustomer)
			r.Get("/customers/{id}", h.GetCustomer)
			r.Put("/customers/{id}", h.UpdateCustomer)
			r.Delete("/customers/{id}", h.DeleteCustomer)
			r.Get("/customers/search/{query}", h.SearchCustomers)

			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/{id}", h.GetOrder)
			r.Put("/orders/{id}/status", h.UpdateOrderStatus)
			r.Get("/orders/recent/{limit}", h.GetRecentOrders)
			r.Get("/orders/customer/{customerId}", h.ListCustomerOrders)

			r.Get("/activities", h.ListActivities)
			r.Post("/activities", h.CreateActivity)
			r.Get("/activities/recent/{limit}", h.GetRecentActivities)

			r.Get("/dashboard/metrics", h.GetDashboardMetrics)
			r.Get("/dashboard/category-stats", h.GetCategoryStats)
			r.Get("/dashboard/popular-products", h.GetPopularProducts)
			r.Get("/dashboard/popular-products/{limit}", h.GetPopularProducts)

			r.Get("/users/{id}", h.GetUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

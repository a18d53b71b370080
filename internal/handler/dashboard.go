package handler

import (
	"net/http"

	"github.com/mmeshcher/divineshop/internal/model"
)

const activityNotFound = "Activity not found"

// ListActivities обрабатывает GET /api/activities.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.ListActivities(r.Context())
	if err != nil {
		h.handleError(w, r, err, activityNotFound, "Failed to fetch activities")
		return
	}
	h.writeJSON(w, http.StatusOK, activities)
}

// GetRecentActivities обрабатывает GET /api/activities/recent/{limit}.
func (h *Handler) GetRecentActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.GetRecentActivities(r.Context(), pathLimit(r))
	if err != nil {
		h.handleError(w, r, err, activityNotFound, "Failed to fetch recent activities")
		return
	}
	h.writeJSON(w, http.StatusOK, activities)
}

// CreateActivity обрабатывает POST /api/activities.
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var in model.NewActivity
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to create activity")
		return
	}
	h.writeJSON(w, http.StatusCreated, activity)
}

// GetDashboardMetrics обрабатывает GET /api/dashboard/metrics.
func (h *Handler) GetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetDashboardMetrics(r.Context())
	if err != nil {
		h.handleError(w, r, err, "", "Failed to fetch dashboard metrics")
		return
	}
	h.writeJSON(w, http.StatusOK, metrics)
}

// GetCategoryStats обрабатывает GET /api/dashboard/category-stats.
func (h *Handler) GetCategoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetProductCategoryStats(r.Context())
	if err != nil {
		h.handleError(w, r, err, "", "Failed to fetch category stats")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetPopularProducts обрабатывает GET /api/dashboard/popular-products/{limit}.
func (h *Handler) GetPopularProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetPopularProducts(r.Context(), pathLimit(r))
	if err != nil {
		h.handleError(w, r, err, "", "Failed to fetch popular products")
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

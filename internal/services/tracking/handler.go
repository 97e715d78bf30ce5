package tracking

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bistro/internal/httpapi"
	"bistro/internal/logger"
)

const serviceName = "tracking-service"

// Handler handles HTTP requests for the tracking service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(httpapi.Logging(h.logger))
	r.NotFound(httpapi.NotFound)
	r.MethodNotAllowed(httpapi.MethodNotAllowed)

	r.Get("/health", h.HealthCheck)
	r.Get("/orders/{id}/status", h.GetOrderStatus)
	r.Get("/orders/{id}/history", h.GetOrderHistory)
	r.Get("/orders/{id}/payments", h.GetPayments)
	return r
}

// GetOrderStatus handles GET /orders/{id}/status requests
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	h.logger.Debug("request_received", "Get order status request", requestID, map[string]interface{}{
		"order_id": id,
		"endpoint": "status",
	})

	status, err := h.service.GetOrderStatus(r.Context(), id, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, status, requestID)
}

// GetOrderHistory handles GET /orders/{id}/history requests
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	h.logger.Debug("request_received", "Get order history request", requestID, map[string]interface{}{
		"order_id": id,
		"endpoint": "history",
	})

	history, err := h.service.GetOrderHistory(r.Context(), id, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, history, requestID)
}

func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	payments, err := h.service.GetPayments(r.Context(), id, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, payments, requestID)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"healthy":   healthy,
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	_ = httpapi.WriteJSON(w, code, response)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid order id", "id", httpapi.RequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any, requestID string) {
	if err := httpapi.WriteJSON(w, http.StatusOK, v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	if errors.Is(err, ErrOrderNotFound) {
		httpapi.WriteError(w, http.StatusNotFound, "Order not found", "", requestID)
		return
	}
	httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error", "", requestID)
}

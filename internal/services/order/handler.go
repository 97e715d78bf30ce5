package order

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bistro/internal/httpapi"
	"bistro/internal/logger"
	"bistro/internal/menu"
	"bistro/internal/models"
	domain "bistro/internal/order"
	"bistro/internal/notification"
	"bistro/internal/payment"
)

const requestTimeout = 30 * time.Second

// Handler handles HTTP requests for the order service
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

// Routes builds the order service router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(httpapi.Logging(h.logger))
	r.NotFound(httpapi.NotFound)
	r.MethodNotAllowed(httpapi.MethodNotAllowed)

	r.Get("/health", h.HealthCheck)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{name}", h.RemoveItem)
			r.Put("/payment-method", h.SetPaymentMethod)
			r.Put("/payment-info", h.AddPaymentInfo)
			r.Post("/payment", h.ProcessPayment)
			r.Put("/status", h.UpdateStatus)
		})
	})

	r.Get("/menu", h.Menu)
	r.Get("/menu/{category}", h.Menu)

	r.Post("/staff", h.AddStaff)
	r.Post("/subscribers", h.AddSubscriber)
	r.Post("/promotions", h.SendPromotion)

	return r
}

type statusResponse struct {
	Order         domain.View      `json:"order"`
	Notifications domain.Broadcast `json:"notifications"`
}

type paymentResponse struct {
	Order         domain.View      `json:"order"`
	Payment       payment.Result   `json:"payment"`
	Notifications domain.Broadcast `json:"notifications"`
}

type staffResponse struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Role notification.Role `json:"role"`
}

type subscriberResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Preferences []string `json:"preferences"`
}

type menuItemResponse struct {
	menu.Item
	PrepTime int `json:"prep_time"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	var req models.CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	v, err := h.service.CreateOrder(ctx, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusCreated, v, requestID)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	views, err := h.service.List(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, views, requestID)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	v, err := h.service.Get(id)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, v, requestID)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req models.AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.service.AddItem(r.Context(), id, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, v, requestID)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	v, err := h.service.RemoveItem(r.Context(), id, chi.URLParam(r, "name"), requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, v, requestID)
}

func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req models.PaymentMethodRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.service.SetPaymentMethod(r.Context(), id, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, v, requestID)
}

func (h *Handler) AddPaymentInfo(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var info payment.Info
	if !h.decode(w, r, &info) {
		return
	}

	v, err := h.service.AddPaymentInfo(r.Context(), id, info, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, v, requestID)
}

// ProcessPayment answers 200 for declined payments too; the result carries the outcome
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	v, report, err := h.service.ProcessPayment(ctx, id, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, paymentResponse{
		Order:         v,
		Payment:       report.Result,
		Notifications: report.Broadcast,
	}, requestID)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req models.StatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	v, b, err := h.service.UpdateStatus(ctx, id, &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Order: v, Notifications: b}, requestID)
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())

	items, err := h.service.Menu(chi.URLParam(r, "category"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = menuItemResponse{Item: item, PrepTime: item.PrepTime()}
	}
	h.writeJSON(w, http.StatusOK, resp, requestID)
}

func (h *Handler) AddStaff(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	var req models.StaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.service.AddStaff(&req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusCreated, staffResponse{ID: st.ID(), Name: st.Name(), Role: st.Role()}, requestID)
}

func (h *Handler) AddSubscriber(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	var req models.SubscriberRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.AddSubscriber(&req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusCreated, subscriberResponse{
		ID:          sub.ID(),
		Name:        sub.Name(),
		Preferences: sub.Preferences(),
	}, requestID)
}

func (h *Handler) SendPromotion(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.RequestID(r.Context())
	var req models.PromotionRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.SendPromotion(r.Context(), &req, requestID)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, b, requestID)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.service.HealthCheck(ctx)
	healthy := true
	for _, state := range checks {
		if state != "ok" {
			healthy = false
		}
	}
	orders, staff, subscribers := h.service.Counts()

	response := map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"service":     serviceName,
		"checks":      checks,
		"orders":      orders,
		"staff":       staff,
		"subscribers": subscribers,
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	h.writeJSON(w, code, response, httpapi.RequestID(r.Context()))
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid order id", "id", httpapi.RequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	requestID := httpapi.RequestID(r.Context())
	if err := httpapi.Decode(r, v); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		httpapi.WriteError(w, http.StatusBadRequest, err.Error(), "", requestID)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any, requestID string) {
	if err := httpapi.WriteJSON(w, code, v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// writeError maps service errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		httpapi.WriteError(w, http.StatusBadRequest, verr.Error(), verr.Field, requestID)
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrItemNotFound):
		httpapi.WriteError(w, http.StatusNotFound, err.Error(), "", requestID)
	case errors.Is(err, ErrItemUnavailable),
		errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, domain.ErrUnknownStatus),
		errors.Is(err, domain.ErrNoPaymentMethod),
		errors.Is(err, domain.ErrNoPaymentInfo),
		errors.Is(err, payment.ErrNoStrategy):
		httpapi.WriteError(w, http.StatusBadRequest, err.Error(), "", requestID)
	default:
		h.logger.Error("request_failed", "Unexpected service error", requestID, err, nil)
		httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error", "", requestID)
	}
}

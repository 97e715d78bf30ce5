package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{7,20}$`)
)

// CreateOrderRequest represents the request to create a new order
type CreateOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// AddItemRequest adds a menu item to an order by name
type AddItemRequest struct {
	Name string `json:"name"`
}

// PaymentMethodRequest selects the payment backend of an order
type PaymentMethodRequest struct {
	Method string `json:"method"`
}

// StatusRequest moves an order to a new status
type StatusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// StaffRequest registers a staff member
type StaffRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// SubscriberRequest registers a promotional subscriber
type SubscriberRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Preferences []string `json:"preferences,omitempty"`
}

// PromotionRequest is a marketing broadcast. Event defaults to "promotion".
type PromotionRequest struct {
	Event     string `json:"event,omitempty"`
	Category  string `json:"category,omitempty"`
	Message   string `json:"message"`
	PromoCode string `json:"promo_code,omitempty"`
}

// OrderTracking is the tracking service view of an order
type OrderTracking struct {
	OrderID          int64           `json:"order_id"`
	CustomerName     string          `json:"customer_name"`
	Status           string          `json:"current_status"`
	Total            decimal.Decimal `json:"total"`
	Items            []TrackedItem   `json:"items"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	EstimatedReady   time.Time       `json:"estimated_ready"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TrackedItem is a stored order line
type TrackedItem struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	PrepMinutes int             `json:"prep_minutes"`
}

// StatusLogEntry represents an entry in the order status log
type StatusLogEntry struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// PaymentRecord is a stored payment attempt
type PaymentRecord struct {
	Method        string            `json:"payment_method"`
	Amount        decimal.Decimal   `json:"amount"`
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Error         string            `json:"error,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Info          map[string]string `json:"payment_info"`
	AttemptedAt   time.Time         `json:"attempted_at"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// Validate validates the create order request
func (req *CreateOrderRequest) Validate() error {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateCustomerName(req.CustomerName); err != nil {
		return err
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return Invalid("phone", "invalid phone number")
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return Invalid("email", "invalid email address")
	}
	return nil
}

func (req *AddItemRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return Invalid("name", "item name is required")
	}
	return nil
}

func (req *PaymentMethodRequest) Validate() error {
	if strings.TrimSpace(req.Method) == "" {
		return Invalid("method", "payment method is required")
	}
	return nil
}

func (req *StatusRequest) Validate() error {
	if strings.TrimSpace(req.Status) == "" {
		return Invalid("status", "status is required")
	}
	return nil
}

func (req *StaffRequest) Validate() error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if strings.TrimSpace(req.Role) == "" {
		return Invalid("role", "role is required")
	}
	return nil
}

func (req *SubscriberRequest) Validate() error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if !emailPattern.MatchString(req.Email) {
		return Invalid("email", "invalid email address")
	}
	return nil
}

func (req *PromotionRequest) Validate() error {
	if strings.TrimSpace(req.Message) == "" {
		return Invalid("message", "message is required")
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return Invalid("customer_name", "customer name is required")
	}
	if len(name) > 100 {
		return Invalid("customer_name", "customer name must be less than 100 characters")
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid("name", "name is required")
	}
	if len(name) > 100 {
		return Invalid("name", "name must be less than 100 characters")
	}
	return nil
}

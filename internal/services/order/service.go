package order

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"bistro/internal/logger"
	"bistro/internal/menu"
	"bistro/internal/messaging/noop"
	"bistro/internal/models"
	domain "bistro/internal/order"
	"bistro/internal/notification"
	"bistro/internal/outcome"
	"bistro/internal/payment"
)

const serviceName = "order-service"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item is not available")
)

var promotionalEvents = []notification.EventType{
	notification.Promotion,
	notification.LoyaltyReward,
	notification.BirthdayOffer,
	notification.SeasonalPromotion,
	notification.NewMenuItem,
	notification.SpecialEvent,
}

// Store persists order snapshots, the status log and payment attempts
type Store interface {
	SaveOrder(ctx context.Context, v domain.View) error
	LogStatus(ctx context.Context, orderID int64, status domain.Status, changedBy, notes string) error
	RecordPayment(ctx context.Context, orderID int64, a payment.Attempt) error
}

// EventPublisher emits order domain events
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, v domain.View) error
	PublishOrderStatusChanged(ctx context.Context, v domain.View, from, to domain.Status) error
	PublishPaymentProcessed(ctx context.Context, v domain.View, res payment.Result) error
}

// Config wires the service. Zero fields fall back to in-memory defaults.
type Config struct {
	Catalog           *menu.Catalog
	IDs               domain.IDAllocator
	Source            outcome.Source
	PaymentRates      payment.Rates
	NotificationRates notification.Rates
	Sender            notification.Sender
	Store             Store
	Events            EventPublisher
	Checks            map[string]func(context.Context) error
	Logger            *logger.Logger
}

// Service owns the order table, the staff roster and the promotional audience
type Service struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order

	// staff and promotional subscribers
	audience notification.Subject

	catalog   *menu.Catalog
	ids       domain.IDAllocator
	src       outcome.Source
	rates     payment.Rates
	deliverer *notification.Deliverer
	store     Store
	events    EventPublisher
	checks    map[string]func(context.Context) error
	logger    *logger.Logger
}

func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = menu.Default()
	}
	if cfg.IDs == nil {
		cfg.IDs = domain.NewCounter(0)
	}
	if cfg.Source == nil {
		cfg.Source = outcome.NewRandom(0)
	}
	if cfg.PaymentRates == (payment.Rates{}) {
		cfg.PaymentRates = payment.DefaultRates
	}
	if cfg.NotificationRates == nil {
		cfg.NotificationRates = notification.DefaultRates()
	}
	if cfg.Sender == nil {
		cfg.Sender = notification.NewLogSender(cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = nopStore{}
	}
	if cfg.Events == nil {
		cfg.Events = noop.Publisher{}
	}

	return &Service{
		orders:    make(map[int64]*domain.Order),
		catalog:   cfg.Catalog,
		ids:       cfg.IDs,
		src:       cfg.Source,
		rates:     cfg.PaymentRates,
		deliverer: notification.NewDeliverer(cfg.Source, cfg.NotificationRates, cfg.Sender),
		store:     cfg.Store,
		events:    cfg.Events,
		checks:    maps.Clone(cfg.Checks),
		logger:    cfg.Logger,
	}
}

// CreateOrder registers a new order. A customer notifier is attached when the
// customer left a phone or email, and every known staff member is attached.
func (s *Service) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, requestID string) (domain.View, error) {
	if err := req.Validate(); err != nil {
		return domain.View{}, err
	}

	o, err := domain.New(ctx, s.ids, domain.Customer{
		Name:  req.CustomerName,
		Phone: req.Phone,
		Email: req.Email,
	}, domain.WithOutcomeSource(s.src), domain.WithPaymentRates(s.rates))
	if err != nil {
		return domain.View{}, err
	}

	if req.Phone != "" || req.Email != "" {
		o.Attach(notification.NewCustomer(req.CustomerName, req.Phone, req.Email, s.deliverer))
	}
	for _, st := range s.Staff() {
		o.Attach(st)
	}

	s.mu.Lock()
	s.orders[o.ID()] = o
	s.mu.Unlock()

	v := o.View()
	s.save(ctx, v, requestID)
	s.logStatus(ctx, v.ID, domain.StatusReceived, serviceName, "order created", requestID)
	if err := s.events.PublishOrderCreated(ctx, v); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish order created event", requestID, err, map[string]interface{}{
			"order_id": v.ID,
		})
	}

	s.logger.Info("order_created", fmt.Sprintf("Order #%d created", v.ID), requestID, map[string]interface{}{
		"order_id":      v.ID,
		"customer_name": v.Customer.Name,
		"observers":     len(v.Observers),
	})
	return v, nil
}

// Order returns the live order
func (s *Service) Order(id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrOrderNotFound, id)
	}
	return o, nil
}

func (s *Service) Get(id int64) (domain.View, error) {
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, err
	}
	return o.View(), nil
}

// List returns the orders sorted by id. A non-empty status keeps only orders in that status.
func (s *Service) List(status string) ([]domain.View, error) {
	var want domain.Status
	if status != "" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			return nil, models.Invalid("status", err.Error())
		}
		want = st
	}

	s.mu.RLock()
	list := slices.Collect(maps.Values(s.orders))
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })

	views := make([]domain.View, 0, len(list))
	for _, o := range list {
		if want != "" && o.Status() != want {
			continue
		}
		views = append(views, o.View())
	}
	return views, nil
}

// AddItem copies the named catalog item into the order
func (s *Service) AddItem(ctx context.Context, id int64, req *models.AddItemRequest, requestID string) (domain.View, error) {
	if err := req.Validate(); err != nil {
		return domain.View{}, err
	}
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, err
	}

	name := strings.TrimSpace(req.Name)
	item, ok := s.catalog.Get(name)
	if !ok {
		return domain.View{}, fmt.Errorf("%w: %q is not on the menu", ErrItemNotFound, name)
	}
	if !item.Available {
		return domain.View{}, fmt.Errorf("%w: %q", ErrItemUnavailable, name)
	}

	o.AddItem(item)
	v := o.View()
	s.save(ctx, v, requestID)

	s.logger.Debug("item_added", fmt.Sprintf("Added %s to order #%d", item.Name, id), requestID, map[string]interface{}{
		"order_id": id,
		"item":     item.Name,
		"price":    item.Price.StringFixed(2),
		"total":    v.Total.StringFixed(2),
	})
	return v, nil
}

func (s *Service) RemoveItem(ctx context.Context, id int64, name, requestID string) (domain.View, error) {
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, err
	}
	if !o.RemoveItem(name) {
		return domain.View{}, fmt.Errorf("%w: %q is not in order #%d", ErrItemNotFound, name, id)
	}

	v := o.View()
	s.save(ctx, v, requestID)
	s.logger.Debug("item_removed", fmt.Sprintf("Removed %s from order #%d", name, id), requestID, map[string]interface{}{
		"order_id": id,
		"item":     name,
	})
	return v, nil
}

func (s *Service) SetPaymentMethod(ctx context.Context, id int64, req *models.PaymentMethodRequest, requestID string) (domain.View, error) {
	if err := req.Validate(); err != nil {
		return domain.View{}, err
	}
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, err
	}
	if err := o.SetPaymentMethod(req.Method); err != nil {
		return domain.View{}, err
	}

	v := o.View()
	s.save(ctx, v, requestID)
	return v, nil
}

// AddPaymentInfo replaces the payment info of the order. Field validation happens at payment time.
func (s *Service) AddPaymentInfo(_ context.Context, id int64, info payment.Info, requestID string) (domain.View, error) {
	if len(info) == 0 {
		return domain.View{}, models.Invalid("payment_info", "payment information is required")
	}
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, err
	}
	o.AddPaymentInfo(info)

	s.logger.Debug("payment_info_added", fmt.Sprintf("Payment info stored for order #%d", id), requestID, map[string]interface{}{
		"order_id": id,
		"fields":   slices.Sorted(maps.Keys(info)),
	})
	return o.View(), nil
}

// ProcessPayment charges the order and records the attempt
func (s *Service) ProcessPayment(ctx context.Context, id int64, requestID string) (domain.View, domain.PaymentReport, error) {
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, domain.PaymentReport{}, err
	}

	report, err := o.Pay(ctx)
	if err != nil {
		return domain.View{}, domain.PaymentReport{}, err
	}

	v := o.View()
	s.save(ctx, v, requestID)
	if err := s.store.RecordPayment(ctx, id, report.Attempt); err != nil {
		s.logger.Error("db_payment_failed", "Failed to record payment attempt", requestID, err, map[string]interface{}{
			"order_id": id,
		})
	}
	if err := s.events.PublishPaymentProcessed(ctx, v, report.Result); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish payment event", requestID, err, map[string]interface{}{
			"order_id": id,
		})
	}

	fields := map[string]interface{}{
		"order_id":  id,
		"method":    report.Result.Method,
		"amount":    report.Result.Amount.StringFixed(2),
		"delivered": report.Broadcast.Delivered(),
		"failed":    report.Broadcast.Failed(),
	}
	if report.Result.Success {
		fields["transaction_id"] = report.Result.TransactionID
		s.logger.Info("payment_successful", fmt.Sprintf("Payment for order #%d succeeded", id), requestID, fields)
	} else {
		fields["error"] = report.Result.Error
		s.logger.Info("payment_failed", fmt.Sprintf("Payment for order #%d failed", id), requestID, fields)
	}
	return v, report, nil
}

// UpdateStatus moves the order to req.Status and broadcasts the matching event
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.StatusRequest, requestID string) (domain.View, domain.Broadcast, error) {
	if err := req.Validate(); err != nil {
		return domain.View{}, domain.Broadcast{}, err
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return domain.View{}, domain.Broadcast{}, err
	}
	o, err := s.Order(id)
	if err != nil {
		return domain.View{}, domain.Broadcast{}, err
	}

	from, b, err := o.Transition(ctx, status)
	if err != nil {
		return domain.View{}, domain.Broadcast{}, err
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = serviceName
	}

	v := o.View()
	s.save(ctx, v, requestID)
	s.logStatus(ctx, id, status, changedBy, req.Notes, requestID)
	if err := s.events.PublishOrderStatusChanged(ctx, v, from, status); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish status change event", requestID, err, map[string]interface{}{
			"order_id": id,
		})
	}

	s.logger.Info("status_updated", fmt.Sprintf("Order #%d: %s -> %s", id, from, status), requestID, map[string]interface{}{
		"order_id":   id,
		"old_status": string(from),
		"new_status": string(status),
		"delivered":  b.Delivered(),
		"failed":     b.Failed(),
	})
	return v, b, nil
}

// AddStaff registers a staff member. Orders created afterwards notify them.
func (s *Service) AddStaff(req *models.StaffRequest, requestID string) (*notification.Staff, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role, err := notification.ParseRole(req.Role)
	if err != nil {
		return nil, models.Invalid("role", err.Error())
	}
	st, err := notification.NewStaff(strings.TrimSpace(req.Name), role, s.deliverer)
	if err != nil {
		return nil, err
	}
	s.audience.Attach(st)

	s.logger.Info("staff_added", fmt.Sprintf("Staff member %s added as %s", st.Name(), role), requestID, nil)
	return st, nil
}

func (s *Service) AddSubscriber(req *models.SubscriberRequest, requestID string) (*notification.Promotional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sub := notification.NewPromotional(strings.TrimSpace(req.Name), req.Email, req.Preferences, s.deliverer)
	s.audience.Attach(sub)

	s.logger.Info("subscriber_added", fmt.Sprintf("%s subscribed to promotions", sub.Name()), requestID, map[string]interface{}{
		"preferences": sub.Preferences(),
	})
	return sub, nil
}

func (s *Service) Staff() []*notification.Staff {
	var staff []*notification.Staff
	for _, o := range s.audience.Observers() {
		if st, ok := o.(*notification.Staff); ok {
			staff = append(staff, st)
		}
	}
	return staff
}

func (s *Service) Subscribers() []*notification.Promotional {
	var subs []*notification.Promotional
	for _, o := range s.audience.Observers() {
		if p, ok := o.(*notification.Promotional); ok {
			subs = append(subs, p)
		}
	}
	return subs
}

// SendPromotion broadcasts a marketing event to the promotional subscribers
func (s *Service) SendPromotion(ctx context.Context, req *models.PromotionRequest, requestID string) (domain.Broadcast, error) {
	if err := req.Validate(); err != nil {
		return domain.Broadcast{}, err
	}

	event := notification.Promotion
	if req.Event != "" {
		event = notification.EventType(strings.ToLower(strings.TrimSpace(req.Event)))
	}
	if !slices.Contains(promotionalEvents, event) {
		return domain.Broadcast{}, models.Invalid("event", fmt.Sprintf("unknown promotional event %q", req.Event))
	}

	b := domain.Broadcast{
		Event: event,
		Outcomes: s.audience.Notify(ctx, event, notification.Payload{
			"category":   req.Category,
			"message":    req.Message,
			"promo_code": req.PromoCode,
		}),
	}

	s.logger.Info("promotion_sent", fmt.Sprintf("Promotion %s sent", event), requestID, map[string]interface{}{
		"category":  req.Category,
		"delivered": b.Delivered(),
		"failed":    b.Failed(),
	})
	return b, nil
}

// Menu lists the catalog, optionally restricted to one category
func (s *Service) Menu(category string) ([]menu.Item, error) {
	if category == "" {
		return s.catalog.All(), nil
	}
	c, err := menu.ParseCategory(category)
	if err != nil {
		return nil, models.Invalid("category", err.Error())
	}
	return s.catalog.ByCategory(c), nil
}

func (s *Service) Catalog() *menu.Catalog { return s.catalog }

// HealthCheck runs every configured dependency check
func (s *Service) HealthCheck(ctx context.Context) map[string]string {
	result := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Error("health_check_failed", fmt.Sprintf("%s is unhealthy", name), "", err, nil)
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	return result
}

// Counts summarises the service state
func (s *Service) Counts() (orders, staff, subscribers int) {
	s.mu.RLock()
	orders = len(s.orders)
	s.mu.RUnlock()
	return orders, len(s.Staff()), len(s.Subscribers())
}

func (s *Service) save(ctx context.Context, v domain.View, requestID string) {
	if err := s.store.SaveOrder(ctx, v); err != nil {
		s.logger.Error("db_save_failed", "Failed to save order snapshot", requestID, err, map[string]interface{}{
			"order_id": v.ID,
		})
	}
}

func (s *Service) logStatus(ctx context.Context, id int64, status domain.Status, changedBy, notes, requestID string) {
	if err := s.store.LogStatus(ctx, id, status, changedBy, notes); err != nil {
		s.logger.Error("db_status_log_failed", "Failed to log status change", requestID, err, map[string]interface{}{
			"order_id": id,
			"status":   string(status),
		})
	}
}

type nopStore struct{}

func (nopStore) SaveOrder(context.Context, domain.View) error { return nil }

func (nopStore) LogStatus(context.Context, int64, domain.Status, string, string) error { return nil }

func (nopStore) RecordPayment(context.Context, int64, payment.Attempt) error { return nil }

package tracking

import (
	"context"
	"errors"
	"fmt"

	"bistro/internal/database"
	"bistro/internal/logger"
	"bistro/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// Service answers order tracking queries from the store
type Service struct {
	repo   Repository
	db     Pinger
	logger *logger.Logger
}

func NewService(repo Repository, db Pinger, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		db:     db,
		logger: log,
	}
}

// GetOrderStatus retrieves the current status of an order
func (s *Service) GetOrderStatus(ctx context.Context, orderID int64, requestID string) (*models.OrderTracking, error) {
	t, err := s.repo.OrderStatus(ctx, orderID)
	if err != nil {
		return nil, s.wrap(err, "Failed to query order", orderID, requestID)
	}
	return t, nil
}

// GetOrderHistory retrieves the complete status history of an order
func (s *Service) GetOrderHistory(ctx context.Context, orderID int64, requestID string) ([]models.StatusLogEntry, error) {
	history, err := s.repo.StatusHistory(ctx, orderID)
	if err != nil {
		return nil, s.wrap(err, "Failed to query order history", orderID, requestID)
	}
	if history == nil {
		history = []models.StatusLogEntry{}
	}
	return history, nil
}

func (s *Service) GetPayments(ctx context.Context, orderID int64, requestID string) ([]models.PaymentRecord, error) {
	payments, err := s.repo.PaymentAttempts(ctx, orderID)
	if err != nil {
		return nil, s.wrap(err, "Failed to query payment attempts", orderID, requestID)
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}
	return payments, nil
}

// HealthCheck checks the health of dependencies
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.db == nil {
		return true
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}

func (s *Service) wrap(err error, msg string, orderID int64, requestID string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: #%d", ErrOrderNotFound, orderID)
	}
	s.logger.Error("db_query_failed", msg, requestID, err, map[string]interface{}{
		"order_id": orderID,
	})
	return fmt.Errorf("database error: %w", err)
}

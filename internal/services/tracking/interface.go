package tracking

import (
	"context"

	"bistro/internal/models"
)

// Repository is the read side of the order store
type Repository interface {
	OrderStatus(ctx context.Context, orderID int64) (*models.OrderTracking, error)
	StatusHistory(ctx context.Context, orderID int64) ([]models.StatusLogEntry, error)
	PaymentAttempts(ctx context.Context, orderID int64) ([]models.PaymentRecord, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

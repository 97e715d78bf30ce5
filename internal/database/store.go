package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bistro/internal/models"
	"bistro/internal/order"
	"bistro/internal/payment"
)

var ErrNotFound = errors.New("order not found")

// OrderStore persists order snapshots, the status log and payment attempts
type OrderStore struct {
	db *DB
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{db: db}
}

// SaveOrder upserts the order row and replaces its items
func (s *OrderStore) SaveOrder(ctx context.Context, v order.View) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, UpsertOrderSQL,
			v.ID, v.Customer.Name, v.Customer.Phone, v.Customer.Email, string(v.Status),
			v.Total.StringFixed(2), v.EstimatedTime, string(v.PaymentMethod), v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save order %d: %w", v.ID, err)
		}

		if _, err := tx.Exec(ctx, DeleteOrderItemsSQL, v.ID); err != nil {
			return fmt.Errorf("failed to clear items of order %d: %w", v.ID, err)
		}

		batch := &pgx.Batch{}
		for i, item := range v.Items {
			batch.Queue(InsertOrderItemSQL, v.ID, i+1, item.Name, item.Category, item.Price.StringFixed(2), item.PrepTime)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save items of order %d: %w", v.ID, err)
		}
		return nil
	})
}

// LogStatus appends a status log entry
func (s *OrderStore) LogStatus(ctx context.Context, orderID int64, status order.Status, changedBy, notes string) error {
	if err := s.db.Exec(ctx, InsertOrderStatusLogSQL, orderID, string(status), changedBy, notes); err != nil {
		return fmt.Errorf("failed to log status of order %d: %w", orderID, err)
	}
	return nil
}

// RecordPayment stores one processor history entry. Info is already sanitized.
func (s *OrderStore) RecordPayment(ctx context.Context, orderID int64, a payment.Attempt) error {
	r := a.Result
	info := map[string]string(a.Info)
	if info == nil {
		info = map[string]string{}
	}
	err := s.db.Exec(ctx, InsertPaymentAttemptSQL,
		orderID, r.Method, a.Amount.StringFixed(2), r.Success, r.TransactionID,
		r.Error, r.Reason, info, a.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record payment for order %d: %w", orderID, err)
	}
	return nil
}

// MaxOrderID returns the highest stored order id, 0 when empty
func (s *OrderStore) MaxOrderID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.Pool.QueryRow(ctx, GetMaxOrderIDSQL).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read max order id: %w", err)
	}
	return id, nil
}

// OrderStatus reads the tracking summary of one order
func (s *OrderStore) OrderStatus(ctx context.Context, orderID int64) (*models.OrderTracking, error) {
	var (
		t     models.OrderTracking
		total string
	)
	err := s.db.Pool.QueryRow(ctx, GetOrderStatusSQL, orderID).Scan(
		&t.OrderID, &t.CustomerName, &t.Status, &total, &t.EstimatedMinutes,
		&t.PaymentMethod, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %d: %w", orderID, err)
	}
	if t.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total for order %d: %w", orderID, err)
	}
	t.EstimatedReady = t.CreatedAt.Add(time.Duration(t.EstimatedMinutes) * time.Minute)

	rows, err := s.db.Pool.Query(ctx, GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read items of order %d: %w", orderID, err)
	}
	t.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TrackedItem, error) {
		var (
			item  models.TrackedItem
			price string
		)
		err := row.Scan(&item.Name, &item.Category, &price, &item.PrepMinutes)
		if err != nil {
			return item, err
		}
		item.Price, err = decimal.NewFromString(price)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items of order %d: %w", orderID, err)
	}
	return &t, nil
}

// StatusHistory returns the status log of one order, oldest first
func (s *OrderStore) StatusHistory(ctx context.Context, orderID int64) ([]models.StatusLogEntry, error) {
	if err := s.exists(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history of order %d: %w", orderID, err)
	}
	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StatusLogEntry, error) {
		var e models.StatusLogEntry
		err := row.Scan(&e.Status, &e.ChangedBy, &e.ChangedAt, &e.Notes)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history of order %d: %w", orderID, err)
	}
	return history, nil
}

// PaymentAttempts returns the recorded payment attempts of one order, oldest first
func (s *OrderStore) PaymentAttempts(ctx context.Context, orderID int64) ([]models.PaymentRecord, error) {
	if err := s.exists(ctx, orderID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, GetPaymentAttemptsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read payments of order %d: %w", orderID, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PaymentRecord, error) {
		var (
			p      models.PaymentRecord
			amount string
		)
		err := row.Scan(&p.Method, &amount, &p.Success, &p.TransactionID, &p.Error, &p.Reason, &p.Info, &p.AttemptedAt)
		if err != nil {
			return p, err
		}
		p.Amount, err = decimal.NewFromString(amount)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments of order %d: %w", orderID, err)
	}
	return records, nil
}

func (s *OrderStore) exists(ctx context.Context, orderID int64) error {
	var found bool
	err := s.db.Pool.QueryRow(ctx, OrderExistsSQL, orderID).Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to look up order %d: %w", orderID, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

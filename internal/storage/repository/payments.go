package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/solvem8/backend/internal/models"
)

// CreatePayment сохраняет новый платёж со статусом pending и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO payments (user_id, amount, currency, order_id, status, plan)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		p.UserID, p.Amount, p.Currency, p.OrderID, p.Status, p.Plan).Scan(&newID); err != nil {
		return 0, mapError(op, err)
	}
	return newID, nil
}

// GetPaymentByOrderID возвращает платёж по идентификатору заказа шлюза.
func (s *Storage) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, amount, currency, order_id, payment_id, status, plan, created_at
			  FROM payments
			  WHERE order_id = $1`
	p := &models.Payment{}
	var paymentID sql.NullString
	row := s.DB.QueryRowContext(ctx, query, orderID)
	if err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.OrderID,
		&paymentID, &p.Status, &p.Plan, &p.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	if paymentID.Valid {
		p.PaymentID = &paymentID.String
	}
	return p, nil
}

// CompletePayment переводит платёж в статус completed и записывает
// идентификатор платежа, присвоенный шлюзом.
func (s *Storage) CompletePayment(ctx context.Context, orderID, paymentID string) error {
	const op = "storage.CompletePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1,
			      payment_id = $2
			  WHERE order_id = $3`
	res, err := s.DB.ExecContext(ctx, query, models.PaymentCompleted, paymentID, orderID)
	if err != nil {
		return mapError(op, err)
	}
	return checkAffected(op, res)
}

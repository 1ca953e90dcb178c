package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/solvem8/backend/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Уникальность username и email обеспечивается индексами без учёта регистра.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO users (username, email, password_hash, free_attempts,
			      subscription_status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FreeAttempts,
		user.SubscriptionStatus).Scan(&newID); err != nil {
		return 0, mapError(op, err)
	}
	return newID, nil
}

const userColumns = `id, username, email, password_hash, free_attempts,
			      subscription_status, subscription_expiry, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var subscriptionExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FreeAttempts, &u.SubscriptionStatus, &subscriptionExpiry, &u.CreatedAt); err != nil {
		return nil, err
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return u, nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по username без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE LOWER(username) = LOWER($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// DecrementFreeAttempts списывает одну бесплатную попытку пользователя.
// Счётчик не опускается ниже нуля. Решение о том, списывать ли попытку
// (статус free или подписка с истёкшим сроком), принимает вызывающий
// сервис. Выполняется одним UPDATE, что закрывает гонку конкурентных
// списаний, присущую схеме чтение-изменение-запись.
func (s *Storage) DecrementFreeAttempts(ctx context.Context, userID int64) error {
	const op = "storage.DecrementFreeAttempts"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET free_attempts = GREATEST(free_attempts - 1, 0)
			  WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return mapError(op, err)
	}
	return nil
}

// AddFreeAttempts добавляет пользователю пакет бесплатных попыток.
func (s *Storage) AddFreeAttempts(ctx context.Context, userID int64, count int) error {
	const op = "storage.AddFreeAttempts"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET free_attempts = free_attempts + $1
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, count, userID)
	if err != nil {
		return mapError(op, err)
	}
	return checkAffected(op, res)
}

// ActivateSubscription переводит пользователя на активную подписку
// с заданной датой истечения.
func (s *Storage) ActivateSubscription(ctx context.Context, userID int64, expiry time.Time) error {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_expiry = $2
			  WHERE id = $3`
	res, err := s.DB.ExecContext(ctx, query, models.SubscriptionActive, expiry, userID)
	if err != nil {
		return mapError(op, err)
	}
	return checkAffected(op, res)
}

func checkAffected(op string, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return mapError(op, sql.ErrNoRows)
	}
	return nil
}

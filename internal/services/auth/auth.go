// Package auth содержит бизнес-логику регистрации и входа пользователей.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/solvem8/backend/internal/lib/password"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)

	// GetUser возвращает пользователя по ID или storage.ErrNotFound.
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email без учёта регистра.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername возвращает пользователя по username без учёта регистра.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service отвечает за регистрацию и проверку учётных данных.
type Service struct {
	users UserRepository
}

// New создаёт Service.
func New(users UserRepository) *Service {
	return &Service{users: users}
}

// Register создаёт нового пользователя: три бесплатные попытки, статус free,
// пароль хранится только как bcrypt-хэш.
//
// Проверка занятости username и email выполняется до вставки; гонка двух
// конкурентных регистраций с одинаковым email этим не закрывается —
// последним рубежом служат уникальные индексы базы.
func (s *Service) Register(ctx context.Context, username, email, rawPassword string) (int64, error) {
	const op = "services.auth.Register"

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Username:           username,
		Email:              email,
		PasswordHash:       hashed,
		FreeAttempts:       models.DefaultFreeAttempts,
		SubscriptionStatus: models.SubscriptionFree,
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Login проверяет учётные данные и возвращает пользователя.
// Несуществующий email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.User, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	return user, nil
}

// GetUser возвращает пользователя по ID.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "services.auth.GetUser"
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

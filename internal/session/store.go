// Package session реализует серверное хранилище сессий.
//
// Сессия идентифицируется случайным uuid, который клиент хранит в cookie.
// Значение сессии — идентификатор пользователя. Время жизни ограничено TTL.
// Хранение выполняется во внешнем key-value backend (Redis в продакшене,
// in-memory карта в тестах).
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается, если сессия отсутствует или истекла.
var ErrNotFound = errors.New("session not found")

// Backend описывает минимальный контракт key-value хранилища сессий.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Store управляет созданием, чтением и удалением сессий.
type Store struct {
	db  Backend
	ttl time.Duration
}

// NewStore создаёт Store поверх переданного key-value backend.
func NewStore(db Backend, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Create создаёт сессию для пользователя и возвращает её идентификатор.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	const op = "session.Create"
	sid := uuid.NewString()
	if err := s.db.Set(ctx, key(sid), strconv.FormatInt(userID, 10), s.ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sid, nil
}

// Resolve возвращает идентификатор пользователя по идентификатору сессии.
func (s *Store) Resolve(ctx context.Context, sid string) (int64, error) {
	const op = "session.Resolve"
	val, found, err := s.db.Get(ctx, key(sid))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return 0, ErrNotFound
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return userID, nil
}

// Destroy удаляет сессию. Удаление несуществующей сессии не считается ошибкой.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	const op = "session.Destroy"
	if err := s.db.Invalidate(ctx, key(sid)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func key(sid string) string {
	return "session:" + sid
}

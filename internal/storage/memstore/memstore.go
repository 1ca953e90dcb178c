// Package memstore реализует in-memory хранилище с теми же контрактами,
// что и реализация на PostgreSQL. Записи каждого вида лежат в карте
// id → запись с автоинкрементным счётчиком идентификаторов.
//
// Используется в тестах бизнес-логики как взаимозаменяемый backend.
// Атомарности между последовательными вызовами нет: вызывающий код
// должен переносить частичное выполнение при ошибке.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage"
)

// Store хранит все три вида записей в памяти процесса.
type Store struct {
	mu sync.Mutex

	users       map[int64]*models.User
	assignments map[int64]*models.Assignment
	payments    map[int64]*models.Payment

	nextUserID       int64
	nextAssignmentID int64
	nextPaymentID    int64
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:            make(map[int64]*models.User),
		assignments:      make(map[int64]*models.Assignment),
		payments:         make(map[int64]*models.Payment),
		nextUserID:       1,
		nextAssignmentID: 1,
		nextPaymentID:    1,
	}
}

// CreateUser сохраняет пользователя, применяя значения по умолчанию:
// три бесплатные попытки и статус free.
func (s *Store) CreateUser(_ context.Context, user models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return 0, storage.ErrDuplicate
		}
	}

	if user.FreeAttempts == 0 {
		user.FreeAttempts = models.DefaultFreeAttempts
	}
	if user.SubscriptionStatus == "" {
		user.SubscriptionStatus = models.SubscriptionFree
	}
	user.ID = s.nextUserID
	user.CreatedAt = time.Now().UTC()
	s.nextUserID++

	stored := user
	s.users[stored.ID] = &stored
	return stored.ID, nil
}

// GetUser возвращает пользователя по ID.
func (s *Store) GetUser(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetUserByUsername возвращает пользователя по username без учёта регистра.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// DecrementFreeAttempts списывает одну попытку, не опуская счётчик ниже нуля.
// Кого списывать (статус free или истёкшая подписка), решает вызывающий сервис.
func (s *Store) DecrementFreeAttempts(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if u.FreeAttempts > 0 {
		u.FreeAttempts--
	}
	return nil
}

// AddFreeAttempts добавляет пользователю пакет попыток.
func (s *Store) AddFreeAttempts(_ context.Context, userID int64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.FreeAttempts += count
	return nil
}

// ActivateSubscription переводит пользователя на активную подписку.
func (s *Store) ActivateSubscription(_ context.Context, userID int64, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.SubscriptionStatus = models.SubscriptionActive
	u.SubscriptionExpiry = &expiry
	return nil
}

// CreateAssignment сохраняет запись задания с серверным временем создания.
func (s *Store) CreateAssignment(_ context.Context, a models.Assignment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextAssignmentID
	a.CreatedAt = time.Now().UTC()
	s.nextAssignmentID++

	stored := a
	s.assignments[stored.ID] = &stored
	return stored.ID, nil
}

// GetAssignment возвращает запись задания по ID.
func (s *Store) GetAssignment(_ context.Context, id int64) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAssignmentsByUser возвращает записи пользователя, новые первыми.
func (s *Store) ListAssignmentsByUser(_ context.Context, userID int64) ([]*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Assignment
	for id := s.nextAssignmentID - 1; id >= 1; id-- {
		a, ok := s.assignments[id]
		if !ok || a.UserID != userID {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

// CountAssignmentsByUser возвращает число записей пользователя.
func (s *Store) CountAssignmentsByUser(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.assignments {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

// SetAssignmentOutputURL заполняет ссылку на сгенерированный PDF.
func (s *Store) SetAssignmentOutputURL(_ context.Context, id int64, outputURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return storage.ErrNotFound
	}
	a.OutputURL = &outputURL
	return nil
}

// CreatePayment сохраняет платёж.
func (s *Store) CreatePayment(_ context.Context, p models.Payment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.OrderID == p.OrderID {
			return 0, storage.ErrDuplicate
		}
	}

	p.ID = s.nextPaymentID
	p.CreatedAt = time.Now().UTC()
	s.nextPaymentID++

	stored := p
	s.payments[stored.ID] = &stored
	return stored.ID, nil
}

// GetPaymentByOrderID возвращает платёж по идентификатору заказа.
func (s *Store) GetPaymentByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// CompletePayment переводит платёж в статус completed.
func (s *Store) CompletePayment(_ context.Context, orderID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.OrderID == orderID {
			p.Status = models.PaymentCompleted
			p.PaymentID = &paymentID
			return nil
		}
	}
	return storage.ErrNotFound
}

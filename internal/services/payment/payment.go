// Package payment содержит бизнес-логику покупок: тарифы, создание
// заказа в шлюзе, проверку подписи и начисление купленного.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage"
)

// Ошибки уровня бизнес-логики платежей.
var (
	// ErrUnknownPlan возвращается для неизвестного тарифного плана.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrInvalidSignature возвращается при несовпадении подписи шлюза.
	ErrInvalidSignature = errors.New("invalid payment signature")
)

// Plan описывает тарифный план с фиксированной ценой.
type Plan struct {
	Amount   int64         // Цена в минорных единицах валюты
	Currency string        // Код валюты
	Attempts int           // Сколько попыток даёт план pack
	Duration time.Duration // Срок подписки для плана monthly
}

// plans фиксированная таблица тарифов.
var plans = map[string]Plan{
	models.PlanMonthly: {Amount: 29900, Currency: "INR", Duration: 30 * 24 * time.Hour},
	models.PlanPack:    {Amount: 9900, Currency: "INR", Attempts: 20},
}

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	AddFreeAttempts(ctx context.Context, userID int64, count int) error
	ActivateSubscription(ctx context.Context, userID int64, expiry time.Time) error
}

// PaymentRepository описывает контракт хранилища платежей.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p models.Payment) (int64, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	CompletePayment(ctx context.Context, orderID, paymentID string) error
}

// Gateway описывает мост к платёжному шлюзу.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) (bool, error)
}

// EventPublisher публикует события о завершённых платежах.
type EventPublisher interface {
	Publish(queue string, message any) error
}

// CompletedEvent сообщение о завершённом платеже для воркера уведомлений.
type CompletedEvent struct {
	UserID    int64  `json:"user_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Plan      string `json:"plan"`
	Amount    int64  `json:"amount"`
}

// Service связывает тарифы, шлюз и хранилище платежей.
type Service struct {
	users     UserRepository
	payments  PaymentRepository
	gateway   Gateway
	publisher EventPublisher
	queue     string
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Service. publisher может быть nil — события тогда не публикуются.
func New(users UserRepository, payments PaymentRepository, gateway Gateway,
	publisher EventPublisher, queue string, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		payments:  payments,
		gateway:   gateway,
		publisher: publisher,
		queue:     queue,
		log:       log,
		now:       time.Now,
	}
}

// Initiate создаёт заказ в шлюзе по тарифу и сохраняет платёж
// со статусом pending. Возвращает идентификатор заказа и сумму.
func (s *Service) Initiate(ctx context.Context, userID int64, planName string) (string, int64, error) {
	const op = "services.payment.Initiate"

	plan, ok := plans[planName]
	if !ok {
		return "", 0, fmt.Errorf("%s: %w: %q", op, ErrUnknownPlan, planName)
	}

	receipt := fmt.Sprintf("user_%d_%d", userID, s.now().Unix())
	orderID, err := s.gateway.CreateOrder(ctx, plan.Amount, plan.Currency, receipt)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.payments.CreatePayment(ctx, models.Payment{
		UserID:   userID,
		Amount:   plan.Amount,
		Currency: plan.Currency,
		OrderID:  orderID,
		Status:   models.PaymentPending,
		Plan:     planName,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	return orderID, plan.Amount, nil
}

// Verify проверяет подпись шлюза и начисляет купленное:
// monthly активирует подписку на 30 дней от момента проверки,
// pack добавляет ровно 20 попыток независимо от текущего значения.
//
// Платёж чужого пользователя неотличим от неизвестного заказа.
// Повторная проверка уже завершённого платежа ничего не меняет, но
// подпись проверяется и в этом случае: повтор с неверной подписью
// получает ошибку, а не успех.
func (s *Service) Verify(ctx context.Context, userID int64, orderID, paymentID, signature string) error {
	const op = "services.payment.Verify"

	p, err := s.payments.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if p.UserID != userID {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	ok, err := s.gateway.VerifySignature(orderID, paymentID, signature)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	if p.Status == models.PaymentCompleted {
		return nil
	}

	if err := s.payments.CompletePayment(ctx, orderID, paymentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	plan := plans[p.Plan]
	switch p.Plan {
	case models.PlanMonthly:
		if err := s.users.ActivateSubscription(ctx, userID, s.now().Add(plan.Duration)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case models.PlanPack:
		if err := s.users.AddFreeAttempts(ctx, userID, plan.Attempts); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.publishCompleted(p, paymentID)
	return nil
}

// publishCompleted отправляет событие в брокер best-effort: сбой публикации
// логируется и не влияет на результат проверки платежа.
func (s *Service) publishCompleted(p *models.Payment, paymentID string) {
	if s.publisher == nil {
		return
	}
	event := CompletedEvent{
		UserID:    p.UserID,
		OrderID:   p.OrderID,
		PaymentID: paymentID,
		Plan:      p.Plan,
		Amount:    p.Amount,
	}
	if err := s.publisher.Publish(s.queue, event); err != nil {
		s.log.Warn("failed to publish payment event", sl.Err(err))
	}
}

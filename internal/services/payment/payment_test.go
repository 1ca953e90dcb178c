package payment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage"
	"github.com/solvem8/backend/internal/storage/memstore"
)

type fakeGateway struct {
	orderID string
	valid   bool
	err     error
}

func (g *fakeGateway) CreateOrder(_ context.Context, _ int64, _, _ string) (string, error) {
	return g.orderID, g.err
}

func (g *fakeGateway) VerifySignature(_, _, _ string) (bool, error) {
	return g.valid, g.err
}

type capturingPublisher struct {
	queue  string
	events []any
	err    error
}

func (p *capturingPublisher) Publish(queue string, message any) error {
	if p.err != nil {
		return p.err
	}
	p.queue = queue
	p.events = append(p.events, message)
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func setupUser(t *testing.T, db *memstore.Store) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), models.User{
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	return id
}

func TestService_Initiate_KnownPlans(t *testing.T) {
	tests := []struct {
		name       string
		plan       string
		wantAmount int64
	}{
		{name: "monthly subscription", plan: models.PlanMonthly, wantAmount: 29900},
		{name: "attempt pack", plan: models.PlanPack, wantAmount: 9900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memstore.New()
			userID := setupUser(t, db)
			svc := New(db, db, &fakeGateway{orderID: "order_abc"}, nil, "", newNoopLogger())

			orderID, amount, err := svc.Initiate(context.Background(), userID, tt.plan)
			require.NoError(t, err)
			assert.Equal(t, "order_abc", orderID)
			assert.Equal(t, tt.wantAmount, amount)

			p, err := db.GetPaymentByOrderID(context.Background(), "order_abc")
			require.NoError(t, err)
			assert.Equal(t, models.PaymentPending, p.Status)
			assert.Equal(t, tt.plan, p.Plan)
		})
	}
}

func TestService_Initiate_UnknownPlan(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_abc"}, nil, "", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, "lifetime")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestService_Verify_MonthlyActivatesSubscription(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_m", valid: true}, nil, "", newNoopLogger())

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanMonthly)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), userID, "order_m", "pay_1", "sig")
	require.NoError(t, err)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionExpiry)
	assert.Equal(t, fixed.Add(30*24*time.Hour), *user.SubscriptionExpiry)

	p, err := db.GetPaymentByOrderID(context.Background(), "order_m")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestService_Verify_PackAddsTwentyAttempts(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_p", valid: true}, nil, "", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanPack)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), userID, "order_p", "pay_2", "sig")
	require.NoError(t, err)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts+20, user.FreeAttempts)
	assert.Equal(t, models.SubscriptionFree, user.SubscriptionStatus)
}

func TestService_Verify_InvalidSignature(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_x", valid: false}, nil, "", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanPack)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), userID, "order_x", "pay_3", "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	p, err := db.GetPaymentByOrderID(context.Background(), "order_x")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts, user.FreeAttempts)
}

func TestService_Verify_UnknownOrder(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{valid: true}, nil, "", newNoopLogger())

	err := svc.Verify(context.Background(), userID, "order_missing", "pay", "sig")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_Verify_ForeignOrderLooksUnknown(t *testing.T) {
	db := memstore.New()
	ownerID := setupUser(t, db)
	otherID, err := db.CreateUser(context.Background(), models.User{
		Username: "mallory",
		Email:    "mallory@example.com",
	})
	require.NoError(t, err)

	svc := New(db, db, &fakeGateway{orderID: "order_own", valid: true}, nil, "", newNoopLogger())
	_, _, err = svc.Initiate(context.Background(), ownerID, models.PlanPack)
	require.NoError(t, err)

	err = svc.Verify(context.Background(), otherID, "order_own", "pay", "sig")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_Verify_IdempotentOnCompleted(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_i", valid: true}, nil, "", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanPack)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), userID, "order_i", "pay_4", "sig"))
	require.NoError(t, svc.Verify(context.Background(), userID, "order_i", "pay_4", "sig"))

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts+20, user.FreeAttempts,
		"repeated verification must not grant attempts twice")
}

func TestService_Verify_CompletedWithBadSignatureRejected(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	svc := New(db, db, &fakeGateway{orderID: "order_r", valid: true}, nil, "", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanPack)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), userID, "order_r", "pay_6", "sig"))

	// Повтор по завершённому платежу с неверной подписью.
	replay := New(db, db, &fakeGateway{orderID: "order_r", valid: false}, nil, "", newNoopLogger())
	err = replay.Verify(context.Background(), userID, "order_r", "pay_6", "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts+20, user.FreeAttempts)
}

func TestService_Verify_PublishesCompletedEvent(t *testing.T) {
	db := memstore.New()
	userID := setupUser(t, db)
	pub := &capturingPublisher{}
	svc := New(db, db, &fakeGateway{orderID: "order_e", valid: true}, pub, "payment_events", newNoopLogger())

	_, _, err := svc.Initiate(context.Background(), userID, models.PlanMonthly)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), userID, "order_e", "pay_5", "sig"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "payment_events", pub.queue)
	event, ok := pub.events[0].(CompletedEvent)
	require.True(t, ok)
	assert.Equal(t, userID, event.UserID)
	assert.Equal(t, "order_e", event.OrderID)
	assert.Equal(t, "pay_5", event.PaymentID)
	assert.Equal(t, models.PlanMonthly, event.Plan)
}

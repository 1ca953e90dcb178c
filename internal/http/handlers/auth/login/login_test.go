package login

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testSessionConfig() config.Session {
	return config.Session{CookieName: "sid", TTL: 24 * time.Hour}
}

func TestHandler_SuccessfulLoginSetsCookie(t *testing.T) {
	service := &MockService{}
	sessions := &MockSessions{}
	user := &models.User{ID: 42, Username: "alice"}
	service.On("Login", mock.Anything, "alice@example.com", "secret1").Return(user, nil).Once()
	sessions.On("Create", mock.Anything, int64(42)).Return("new-session-id", nil).Once()

	handler := New(newNoopLogger(), service, sessions, testSessionConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, "new-session-id", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int(24*time.Hour.Seconds()), cookies[0].MaxAge)

	service.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestHandler_InvalidCredentials(t *testing.T) {
	service := &MockService{}
	sessions := &MockSessions{}
	service.On("Login", mock.Anything, "alice@example.com", "wrong").
		Return(nil, auth.ErrInvalidCredentials).Once()

	handler := New(newNoopLogger(), service, sessions, testSessionConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "no cookie on failed login")
	service.AssertExpectations(t)
}

func TestHandler_ValidationFailure(t *testing.T) {
	handler := New(newNoopLogger(), &MockService{}, &MockSessions{}, testSessionConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"not-an-email","password":"x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

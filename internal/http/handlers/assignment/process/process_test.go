package process

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/services/solve"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Process(ctx context.Context, userID int64, text, fileURL, fileName string) (string, int64, error) {
	args := m.Called(ctx, userID, text, fileURL, fileName)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(body string, userID any) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/process", bytes.NewBufferString(body))
	if userID != nil {
		ctx := context.WithValue(req.Context(), middlewarectx.UserID, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     any
		setupMocks func(*MockService)
		wantCode   int
	}{
		{
			name:   "successful solve",
			body:   `{"text":"2+2=","file_url":"/files/a.pdf","file_name":"task.pdf"}`,
			userID: int64(7),
			setupMocks: func(s *MockService) {
				s.On("Process", mock.Anything, int64(7), "2+2=", "/files/a.pdf", "task.pdf").
					Return("x = 4", int64(11), nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:       "no user in context",
			body:       `{"text":"2+2="}`,
			userID:     nil,
			setupMocks: func(_ *MockService) {},
			wantCode:   http.StatusUnauthorized,
		},
		{
			name:       "missing text",
			body:       `{"file_url":"/files/a.pdf"}`,
			userID:     int64(7),
			setupMocks: func(_ *MockService) {},
			wantCode:   http.StatusBadRequest,
		},
		{
			name:   "quota exhausted",
			body:   `{"text":"2+2="}`,
			userID: int64(7),
			setupMocks: func(s *MockService) {
				s.On("Process", mock.Anything, int64(7), "2+2=", "", "").
					Return("", int64(0), solve.ErrQuotaExhausted).Once()
			},
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockService{}
			tt.setupMocks(service)
			handler := New(newNoopLogger(), service)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(tt.body, tt.userID))

			assert.Equal(t, tt.wantCode, rec.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_SolutionPayload(t *testing.T) {
	service := &MockService{}
	service.On("Process", mock.Anything, int64(7), "question", "", "").
		Return("the solution", int64(3), nil).Once()
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(`{"text":"question"}`, int64(7)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Solution     string `json:"solution"`
			AssignmentID int64  `json:"assignment_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "the solution", resp.Data.Solution)
	assert.Equal(t, int64(3), resp.Data.AssignmentID)
}

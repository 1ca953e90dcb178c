// Package process реализует HTTP-обработчик генерации решения.
package process

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/services/solve"
)

// Request — входные данные для генерации решения
type Request struct {
	Text     string `json:"text" validate:"required"`
	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Service описывает генерацию решения по тексту задания.
type Service interface {
	Process(ctx context.Context, userID int64, text, fileURL, fileName string) (string, int64, error)
}

// Handler обрабатывает запросы на решение задания.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Генерация решения
// @Description Отправляет текст задания в AI-сервис и списывает попытку у бесплатного пользователя.
// @Tags Assignment
// @Accept json
// @Produce json
// @Param request body Request true "Текст задания"
// @Success 200 {object} response.Response "Решение сгенерировано"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 403 {object} response.ErrorResponse "Попытки исчерпаны"
// @Router /api/process [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.process"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(int64)
	if !ok {
		log.Error("user id missing from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	solution, assignmentID, err := h.service.Process(r.Context(), userID, req.Text, req.FileURL, req.FileName)
	if errors.Is(err, solve.ErrQuotaExhausted) {
		log.Info("quota exhausted", slog.Int64("user_id", userID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("free attempts exhausted, please upgrade"))
		return
	}
	if err != nil {
		log.Error("failed to generate solution", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to generate solution"))
		return
	}

	log.Info("solution generated",
		slog.Int64("user_id", userID),
		slog.Int64("assignment_id", assignmentID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"solution":      solution,
		"assignment_id": assignmentID,
	}))
}

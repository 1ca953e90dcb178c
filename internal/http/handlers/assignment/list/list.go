// Package list реализует HTTP-обработчик истории заданий пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/models"
)

// Service описывает доступ к истории заданий.
type Service interface {
	List(ctx context.Context, userID int64) ([]*models.Assignment, error)
}

// Handler обрабатывает запросы истории заданий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История заданий
// @Description Возвращает задания пользователя от новых к старым.
// @Tags Assignment
// @Produce json
// @Success 200 {object} response.Response "Список заданий"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Router /api/assignments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.list"

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

	assignments, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list assignments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list assignments"))
		return
	}

	items := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, map[string]any{
			"id":             a.ID,
			"file_name":      a.FileName,
			"file_url":       a.FileURL,
			"output_url":     a.OutputURL,
			"attempt_number": a.AttemptNumber,
			"created_at":     a.CreatedAt,
		})
	}

	render.JSON(w, r, response.OKWithData(items))
}

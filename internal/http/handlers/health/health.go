// Package health реализует HTTP-обработчик проверки живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
)

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler обрабатывает запросы проверки живости.
type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

// New создает новый Handler.
func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{log: log, pinger: pinger}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Возвращает ok, если сервис и база данных доступны.
// @Tags System
// @Produce json
// @Success 200 {object} response.Response "Сервис доступен"
// @Failure 503 {object} response.ErrorResponse "База данных недоступна"
// @Router /healthz [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.pinger.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}

	render.JSON(w, r, response.OK())
}

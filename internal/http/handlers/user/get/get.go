// Package get реализует HTTP-обработчик профиля текущего пользователя.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage"
)

// Service описывает доступ к данным пользователя.
type Service interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Handler обрабатывает запросы профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает данные пользователя, включая остаток попыток и статус подписки.
// @Tags User
// @Produce json
// @Success 200 {object} response.Response "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /api/user [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.get"

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

	user, err := h.service.GetUser(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Error("user not found", slog.Int64("user_id", userID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to load user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load user"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":                  user.ID,
		"username":            user.Username,
		"email":               user.Email,
		"free_attempts":       user.FreeAttempts,
		"subscription_status": user.SubscriptionStatus,
		"subscription_expiry": user.SubscriptionExpiry,
	}))
}

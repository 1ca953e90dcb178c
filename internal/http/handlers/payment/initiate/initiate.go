// Package initiate реализует HTTP-обработчик создания платежного заказа.
package initiate

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
	"github.com/solvem8/backend/internal/services/payment"
)

// Request — входные данные для создания заказа
type Request struct {
	Plan string `json:"plan" validate:"required,oneof=monthly pack"`
}

// Service описывает создание платежного заказа.
type Service interface {
	Initiate(ctx context.Context, userID int64, plan string) (string, int64, error)
}

// Handler обрабатывает запросы на оплату.
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
// @Summary Создание платежного заказа
// @Description Создает заказ в платежном шлюзе для выбранного тарифа.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body Request true "Тариф: monthly или pack"
// @Success 200 {object} response.Response "Заказ создан"
// @Failure 400 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Router /api/payment/initiate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.initiate"

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

	orderID, amount, err := h.service.Initiate(r.Context(), userID, req.Plan)
	if errors.Is(err, payment.ErrUnknownPlan) {
		log.Info("unknown plan requested", slog.String("plan", req.Plan))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown plan"))
		return
	}
	if err != nil {
		log.Error("failed to initiate payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to initiate payment"))
		return
	}

	log.Info("payment initiated",
		slog.Int64("user_id", userID),
		slog.String("order_id", orderID),
		slog.String("plan", req.Plan))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"order_id": orderID,
		"amount":   amount,
		"currency": "INR",
		"plan":     req.Plan,
	}))
}

// Package verify реализует HTTP-обработчик подтверждения платежа.
package verify

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
	"github.com/solvem8/backend/internal/storage"
)

// Request — входные данные для подтверждения платежа
type Request struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// Service описывает проверку подписи и активацию тарифа.
type Service interface {
	Verify(ctx context.Context, userID int64, orderID, paymentID, signature string) error
}

// Handler обрабатывает подтверждение платежей.
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
// @Summary Подтверждение платежа
// @Description Проверяет подпись шлюза и активирует оплаченный тариф.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body Request true "Идентификаторы и подпись платежа"
// @Success 200 {object} response.Response "Платеж подтвержден"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /api/payment/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"

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

	err := h.service.Verify(r.Context(), userID, req.OrderID, req.PaymentID, req.Signature)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info("order not found", slog.String("order_id", req.OrderID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("order not found"))
		return
	case errors.Is(err, payment.ErrInvalidSignature):
		log.Error("invalid payment signature", slog.String("order_id", req.OrderID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment signature"))
		return
	case err != nil:
		log.Error("failed to verify payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to verify payment"))
		return
	}

	log.Info("payment verified",
		slog.Int64("user_id", userID),
		slog.String("order_id", req.OrderID))
	render.JSON(w, r, response.OK())
}

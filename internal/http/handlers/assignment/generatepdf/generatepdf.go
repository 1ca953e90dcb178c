// Package generatepdf реализует HTTP-обработчик экспорта решения в PDF.
package generatepdf

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
)

// Request — входные данные для экспорта в PDF
type Request struct {
	Solution string `json:"solution" validate:"required"`
	Question string `json:"question,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
}

// Service описывает генерацию PDF-документа с решением.
type Service interface {
	GeneratePDF(ctx context.Context, userID int64, question, solution, fileURL string) (string, error)
}

// Handler обрабатывает запросы на экспорт PDF.
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
// @Summary Экспорт решения в PDF
// @Description Формирует PDF-документ с заданием и решением и возвращает ссылку на него.
// @Tags Assignment
// @Accept json
// @Produce json
// @Param request body Request true "Решение для экспорта"
// @Success 200 {object} response.Response "PDF сформирован"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Router /api/generate-pdf [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.generatepdf"

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

	pdfURL, err := h.service.GeneratePDF(r.Context(), userID, req.Question, req.Solution, req.FileURL)
	if err != nil {
		log.Error("failed to generate pdf", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to generate pdf"))
		return
	}

	log.Info("pdf generated", slog.Int64("user_id", userID), slog.String("pdf_url", pdfURL))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"pdf_url": pdfURL,
	}))
}

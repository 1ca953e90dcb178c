// Package upload реализует HTTP-обработчик загрузки файла задания.
package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/extractor"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/services/solve"
)

// Service описывает прием файла и извлечение текста.
type Service interface {
	Upload(ctx context.Context, fileName string, data []byte, mediaType string) (*solve.UploadResult, error)
}

// Handler обрабатывает загрузку файлов.
type Handler struct {
	log     *slog.Logger
	service Service
	cfg     config.Files
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cfg config.Files) *Handler {
	return &Handler{log: log, service: service, cfg: cfg}
}

// ServeHTTP godoc
// @Summary Загрузка файла задания
// @Description Принимает файл (PDF, DOCX, XLSX, JPG, PNG), сохраняет его и извлекает текст.
// @Tags Assignment
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл задания"
// @Success 200 {object} response.Response "Текст извлечен"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует, слишком велик или неподдерживаемого типа"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 500 {object} response.ErrorResponse "Извлечение текста не удалось"
// @Router /api/upload [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("failed to read uploaded file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is missing or exceeds the size limit"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read file body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is missing or exceeds the size limit"))
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}

	result, err := h.service.Upload(r.Context(), header.Filename, data, mediaType)
	if errors.Is(err, extractor.ErrUnsupportedMediaType) {
		log.Info("unsupported media type", slog.String("media_type", mediaType))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unsupported file type"))
		return
	}
	if err != nil {
		log.Error("file processing failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to extract text from file"))
		return
	}

	log.Info("file uploaded",
		slog.String("file_name", result.FileName),
		slog.String("file_url", result.FileURL))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"file_url":       result.FileURL,
		"file_name":      result.FileName,
		"extracted_text": result.ExtractedText,
	}))
}

package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/lib/sl"
)

// Ошибки извлечения, различимые вызывающим кодом.
var (
	// ErrUnsupportedMediaType возвращается для неизвестного media type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrExtractionFailed возвращается при внутреннем сбое стратегии.
	// Детали сбоя остаются в логе и не выдаются вызывающему.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Поддерживаемые media type.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

// Strategy извлекает текст из документа одного формата.
type Strategy interface {
	// Extract возвращает плоский текст документа.
	Extract(ctx context.Context, data []byte) (string, error)
	// Format возвращает короткое имя формата для логов и метрик.
	Format() string
}

// Counter учитывает выполненные извлечения по форматам.
// Реализуется пакетом metrics; nil-безопасная обёртка находится в Service.
type Counter interface {
	ExtractionDone(format string)
}

// Service диспетчеризует извлечение по заявленному media type документа.
type Service struct {
	strategies map[string]Strategy
	log        *slog.Logger
	counter    Counter
}

// New собирает Service со стратегиями для всех поддерживаемых форматов.
// counter может быть nil.
func New(cfg config.Extractor, log *slog.Logger, counter Counter) *Service {
	ocr := newOCREngine(cfg, execRunner{}, log)

	s := &Service{
		strategies: make(map[string]Strategy),
		log:        log,
		counter:    counter,
	}
	s.Register(MediaTypePDF, &pdfStrategy{ocr: ocr, log: log})
	s.Register(MediaTypeDOCX, &docxStrategy{})
	s.Register(MediaTypeXLSX, &xlsxStrategy{})
	s.Register(MediaTypeJPEG, &imageStrategy{ocr: ocr, ext: ".jpg"})
	s.Register(MediaTypePNG, &imageStrategy{ocr: ocr, ext: ".png"})
	return s
}

// Register добавляет стратегию для media type. Новый формат подключается
// регистрацией, без изменения существующих стратегий.
func (s *Service) Register(mediaType string, strategy Strategy) {
	s.strategies[mediaType] = strategy
}

// Extract возвращает плоский текст документа по заявленному media type.
//
// Неизвестный media type даёт ErrUnsupportedMediaType без побочных
// эффектов. Внутренний сбой стратегии логируется с деталями и
// возвращается как ErrExtractionFailed.
func (s *Service) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	const op = "extractor.Extract"

	strategy, ok := s.strategies[mediaType]
	if !ok {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnsupportedMediaType, mediaType)
	}

	text, err := strategy.Extract(ctx, data)
	if err != nil {
		s.log.Error("extraction strategy failed",
			slog.String("op", op),
			slog.String("format", strategy.Format()),
			sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrExtractionFailed)
	}
	if s.counter != nil {
		s.counter.ExtractionDone(strategy.Format())
	}
	return text, nil
}

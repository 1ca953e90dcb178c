package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/solvem8/backend/internal/config"
)

// noTextFoundMessage возвращается вызывающему, когда OCR по изображению
// отработал, но текста не нашёл. Не является ошибкой.
const noTextFoundMessage = "No text was found in the uploaded image."

// ocrEngine выполняет распознавание текста через внешние утилиты
// tesseract и pdftoppm. Все временные файлы приватны для одного запроса
// и удаляются на каждом пути выхода.
type ocrEngine struct {
	cfg    config.Extractor
	runner Runner
	log    *slog.Logger
}

func newOCREngine(cfg config.Extractor, runner Runner, log *slog.Logger) *ocrEngine {
	return &ocrEngine{cfg: cfg, runner: runner, log: log}
}

// ImageText распознаёт текст растрового изображения (английская модель).
func (e *ocrEngine) ImageText(ctx context.Context, data []byte, ext string) (string, error) {
	const op = "extractor.ocr.ImageText"

	tmp, err := os.CreateTemp("", "solvem8-ocr-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	text, err := e.tesseract(ctx, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

// PDFText растеризует страницы PDF через pdftoppm и распознаёт каждую.
func (e *ocrEngine) PDFText(ctx context.Context, data []byte) (string, error) {
	const op = "extractor.ocr.PDFText"

	tmpDir, err := os.MkdirTemp("", "solvem8-pdf-*")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	src := filepath.Join(tmpDir, "in.pdf")
	if err = os.WriteFile(src, data, 0o600); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// pdftoppm -png -r 200 in.pdf <dir>/page
	_, errb, err := e.runner.Run(ctx, e.cfg.PdftoppmBin,
		"-png", "-r", "200", src, filepath.Join(tmpDir, "page"))
	if err != nil {
		return "", fmt.Errorf("%s: pdftoppm: %w: %s", op, err, strings.TrimSpace(string(errb)))
	}

	pages, err := filepath.Glob(filepath.Join(tmpDir, "page*.png"))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(pages)

	var parts []string
	for _, page := range pages {
		text, err := e.tesseract(ctx, page)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (e *ocrEngine) tesseract(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OCRTimeout)
	defer cancel()

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.TesseractBin, path, "stdout", "-l", e.cfg.OCRLanguage)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

// imageStrategy извлекает текст из JPEG/PNG через OCR. Сбой OCR на этом
// пути является жёсткой ошибкой извлечения; пустой результат
// распознавания возвращается как текстовое сообщение для пользователя.
type imageStrategy struct {
	ocr *ocrEngine
	ext string
}

func (s *imageStrategy) Format() string { return "image" }

func (s *imageStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	text, err := s.ocr.ImageText(ctx, data, s.ext)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return noTextFoundMessage, nil
	}
	return strings.TrimSpace(text), nil
}

// Package extractor извлекает плоский текст из загружаемых документов.
//
// Поддерживаемые media type: PDF, DOCX, XLSX, JPEG и PNG. Для каждого
// формата зарегистрирована своя стратегия; неизвестный media type
// отклоняется сразу, без обращения к временным файлам. Для PDF со
// сканированными страницами и для изображений используется OCR через
// внешние утилиты tesseract и pdftoppm.
package extractor

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner запускает внешний процесс и возвращает stdout и stderr.
// Выделен в интерфейс, чтобы в тестах подменять вызовы tesseract и pdftoppm.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

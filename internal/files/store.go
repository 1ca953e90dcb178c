// Package files реализует файловое хранилище на локальном диске для
// загруженных заданий и сгенерированных PDF. Файлы раздаются сервером
// по публичному префиксу.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/solvem8/backend/internal/config"
)

// Store сохраняет байты на диск и возвращает публичные ссылки.
type Store struct {
	dir    string
	prefix string
}

// NewStore создаёт хранилище, при необходимости создавая каталог.
func NewStore(cfg config.Files) (*Store, error) {
	const op = "files.NewStore"
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{dir: cfg.Dir, prefix: strings.TrimSuffix(cfg.PublicPrefix, "/")}, nil
}

// Dir возвращает корневой каталог хранилища.
func (s *Store) Dir() string { return s.dir }

// Save записывает данные под уникальным именем, сохраняя расширение
// исходного файла, и возвращает публичную ссылку.
func (s *Store) Save(originalName string, data []byte) (string, error) {
	const op = "files.Save"

	name := uuid.NewString() + sanitizeExt(filepath.Ext(originalName))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.prefix + "/" + name, nil
}

// sanitizeExt оставляет только безобидные короткие расширения.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) > 6 {
		return ""
	}
	if ext == "" {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

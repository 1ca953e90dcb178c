// Package solve содержит бизнес-логику обработки заданий: загрузку файла
// с извлечением текста, квоту бесплатных попыток, генерацию решения
// и рендеринг PDF.
package solve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solvem8/backend/internal/extractor"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/models"
)

// ErrQuotaExhausted возвращается, когда у пользователя со статусом free
// не осталось бесплатных попыток. Генератор решений при этом не вызывается.
var ErrQuotaExhausted = errors.New("no free attempts remaining")

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// DecrementFreeAttempts списывает попытку без оглядки на статус
	// подписки; счётчик не уходит ниже нуля.
	DecrementFreeAttempts(ctx context.Context, userID int64) error
}

// AssignmentRepository описывает контракт хранилища записей заданий.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, a models.Assignment) (int64, error)
	ListAssignmentsByUser(ctx context.Context, userID int64) ([]*models.Assignment, error)
	CountAssignmentsByUser(ctx context.Context, userID int64) (int, error)
	SetAssignmentOutputURL(ctx context.Context, id int64, outputURL string) error
}

// Generator описывает внешний сервис генерации решений.
type Generator interface {
	GenerateSolution(ctx context.Context, text string) (string, error)
}

// Extractor описывает извлечение текста из документа.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

// Renderer описывает рендеринг решения в PDF.
type Renderer interface {
	Render(question, solution string) ([]byte, error)
}

// FileStore описывает сохранение файла с выдачей публичной ссылки.
type FileStore interface {
	Save(originalName string, data []byte) (string, error)
}

// Counter учитывает успешные генерации решений. Может быть nil.
type Counter interface {
	SolveDone()
}

// Service связывает извлечение, квоту, генерацию и рендеринг.
type Service struct {
	users       UserRepository
	assignments AssignmentRepository
	generator   Generator
	extract     Extractor
	renderer    Renderer
	fileStore   FileStore
	counter     Counter
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт Service. counter может быть nil.
func New(users UserRepository, assignments AssignmentRepository, generator Generator,
	extract Extractor, renderer Renderer, fileStore FileStore, counter Counter, log *slog.Logger) *Service {
	return &Service{
		users:       users,
		assignments: assignments,
		generator:   generator,
		extract:     extract,
		renderer:    renderer,
		fileStore:   fileStore,
		counter:     counter,
		log:         log,
		now:         time.Now,
	}
}

// UploadResult результат загрузки файла.
type UploadResult struct {
	FileURL       string
	FileName      string
	ExtractedText string
}

// Upload извлекает текст из файла, сохраняет исходник и применяет
// презентационное форматирование. Извлечение выполняется до сохранения:
// отклонённый файл не оставляет следов на диске.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte, mediaType string) (*UploadResult, error) {
	const op = "services.solve.Upload"

	text, err := s.extract.Extract(ctx, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fileURL, err := s.fileStore.Save(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &UploadResult{
		FileURL:       fileURL,
		FileName:      fileName,
		ExtractedText: extractor.FormatText(text),
	}, nil
}

// Process пропускает текст задания через квоту и генератор решений,
// затем сохраняет запись задания.
//
// Квота проверяется до вызова генератора: пользователь со статусом free
// и нулевым счётчиком получает ErrQuotaExhausted, запись не создаётся.
// Списание попытки выполняется только после успешной генерации и только
// без действующей подписки (статус free или подписка с истёкшим сроком).
// Последовательные вызовы хранилища не атомарны:
// при сбое после генерации возможна запись без списания и наоборот.
func (s *Service) Process(ctx context.Context, userID int64, text, fileURL, fileName string) (string, int64, error) {
	const op = "services.solve.Process"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	subscribed := user.HasActiveSubscription(s.now())
	if !subscribed && user.FreeAttempts <= 0 {
		return "", 0, fmt.Errorf("%s: %w", op, ErrQuotaExhausted)
	}

	solution, err := s.generator.GenerateSolution(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if !subscribed {
		if err := s.users.DecrementFreeAttempts(ctx, userID); err != nil {
			return "", 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	attempts, err := s.assignments.CountAssignmentsByUser(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.assignments.CreateAssignment(ctx, models.Assignment{
		UserID:        userID,
		FileName:      fileName,
		FileURL:       fileURL,
		AttemptNumber: attempts + 1,
		ExtractedText: text,
		SolutionText:  solution,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if s.counter != nil {
		s.counter.SolveDone()
	}
	return solution, id, nil
}

// GeneratePDF рендерит решение в PDF, сохраняет его в файловое хранилище
// и по возможности привязывает ссылку к записи задания с тем же исходным
// файлом. Привязка best-effort: её сбой не мешает выдать PDF.
func (s *Service) GeneratePDF(ctx context.Context, userID int64, question, solution, fileURL string) (string, error) {
	const op = "services.solve.GeneratePDF"

	data, err := s.renderer.Render(question, solution)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	pdfURL, err := s.fileStore.Save("solution.pdf", data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if fileURL != "" {
		if err := s.backfillOutputURL(ctx, userID, fileURL, pdfURL); err != nil {
			s.log.Warn("failed to backfill assignment output url",
				slog.String("op", op), sl.Err(err))
		}
	}
	return pdfURL, nil
}

// backfillOutputURL находит свежайшую запись пользователя с данным
// исходным файлом и заполняет ей ссылку на PDF.
func (s *Service) backfillOutputURL(ctx context.Context, userID int64, fileURL, pdfURL string) error {
	records, err := s.assignments.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.FileURL == fileURL {
			return s.assignments.SetAssignmentOutputURL(ctx, rec.ID, pdfURL)
		}
	}
	return nil
}

// List возвращает записи заданий пользователя, новые первыми.
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Assignment, error) {
	const op = "services.solve.List"
	records, err := s.assignments.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

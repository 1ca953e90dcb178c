package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/solvem8/backend/internal/models"
)

// CreateAssignment сохраняет новую запись решённого задания и возвращает её ID.
func (s *Storage) CreateAssignment(ctx context.Context, a models.Assignment) (int64, error) {
	const op = "storage.CreateAssignment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO assignments (user_id, file_name, file_url, attempt_number,
			      extracted_text, solution_text)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		a.UserID, a.FileName, a.FileURL, a.AttemptNumber,
		a.ExtractedText, a.SolutionText).Scan(&newID); err != nil {
		return 0, mapError(op, err)
	}
	return newID, nil
}

// GetAssignment возвращает запись задания по её ID.
func (s *Storage) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	const op = "storage.GetAssignment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, file_name, file_url, output_url, attempt_number,
			      extracted_text, solution_text, created_at
			  FROM assignments
			  WHERE id = $1`
	a := &models.Assignment{}
	var outputURL sql.NullString
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&a.ID, &a.UserID, &a.FileName, &a.FileURL, &outputURL,
		&a.AttemptNumber, &a.ExtractedText, &a.SolutionText, &a.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	if outputURL.Valid {
		a.OutputURL = &outputURL.String
	}
	return a, nil
}

// ListAssignmentsByUser возвращает записи пользователя, новые первыми.
func (s *Storage) ListAssignmentsByUser(ctx context.Context, userID int64) ([]*models.Assignment, error) {
	const op = "storage.ListAssignmentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, file_name, file_url, output_url, attempt_number,
			      extracted_text, solution_text, created_at
			  FROM assignments
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Assignment
	for rows.Next() {
		var a models.Assignment
		var outputURL sql.NullString
		if err = rows.Scan(&a.ID, &a.UserID, &a.FileName, &a.FileURL, &outputURL,
			&a.AttemptNumber, &a.ExtractedText, &a.SolutionText, &a.CreatedAt); err != nil {
			return nil, mapError(op, err)
		}
		if outputURL.Valid {
			a.OutputURL = &outputURL.String
		}
		result = append(result, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return result, nil
}

// CountAssignmentsByUser возвращает число записей пользователя.
// Используется для нумерации попыток.
func (s *Storage) CountAssignmentsByUser(ctx context.Context, userID int64) (int, error) {
	const op = "storage.CountAssignmentsByUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM assignments WHERE user_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, mapError(op, err)
	}
	return count, nil
}

// SetAssignmentOutputURL заполняет ссылку на сгенерированный PDF.
// Единственное разрешённое изменение записи после создания.
func (s *Storage) SetAssignmentOutputURL(ctx context.Context, id int64, outputURL string) error {
	const op = "storage.SetAssignmentOutputURL"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE assignments
			  SET output_url = $1
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, outputURL, id)
	if err != nil {
		return mapError(op, err)
	}
	return checkAffected(op, res)
}

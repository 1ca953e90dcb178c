// Package storage определяет общие ошибки слоя хранения, единые для
// всех реализаций (PostgreSQL и in-memory).
package storage

import "errors"

var (
	// ErrNotFound возвращается, если запись с таким идентификатором отсутствует.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate возвращается при нарушении уникальности username или email.
	ErrDuplicate = errors.New("record already exists")
)

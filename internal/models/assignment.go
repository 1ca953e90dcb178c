package models

import "time"

// Assignment представляет одну обработанную загрузку задания и её решение.
// Запись неизменяема после создания, кроме поля OutputURL, которое
// заполняется после рендеринга PDF с решением.
type Assignment struct {
	ID            int64     // Уникальный идентификатор записи
	UserID        int64     // Владелец записи
	FileName      string    // Имя исходного файла
	FileURL       string    // Ссылка на исходный файл
	OutputURL     *string   // Ссылка на PDF с решением, если он был сгенерирован
	AttemptNumber int       // Порядковый номер попытки пользователя
	ExtractedText string    // Извлечённый из файла текст
	SolutionText  string    // Сгенерированное решение
	CreatedAt     time.Time // Дата создания
}

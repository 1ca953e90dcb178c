// Package models содержит доменную модель сервиса SOLVEM8:
// учётные записи пользователей, записи решённых заданий и платежи.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionFree   = "free"
	SubscriptionActive = "active"
)

// DefaultFreeAttempts количество бесплатных попыток при регистрации.
const DefaultFreeAttempts = 3

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	ID                 int64      // Уникальный идентификатор пользователя
	Username           string     // Имя пользователя (уникальное без учёта регистра)
	Email              string     // Электронная почта (уникальная без учёта регистра)
	PasswordHash       string     // Bcrypt-хэш пароля, исходный пароль не хранится
	FreeAttempts       int        // Остаток бесплатных попыток, не бывает отрицательным
	SubscriptionStatus string     // Статус подписки: free или active
	SubscriptionExpiry *time.Time // Дата истечения оплаченной подписки
	CreatedAt          time.Time  // Дата регистрации
}

// HasActiveSubscription сообщает, действует ли у пользователя оплаченная подписка.
// Подписка со статусом active, но с истёкшим сроком, считается неактивной.
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	if u.SubscriptionExpiry != nil && u.SubscriptionExpiry.Before(now) {
		return false
	}
	return true
}

package models

import "time"

// Статусы платежа.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Тарифные планы.
const (
	PlanMonthly = "monthly"
	PlanPack    = "pack"
)

// Payment представляет одну попытку покупки и её жизненный цикл.
// Создаётся со статусом pending при инициации, переводится в completed
// после успешной проверки подписи платёжного шлюза.
type Payment struct {
	ID        int64     // Уникальный идентификатор записи
	UserID    int64     // Владелец платежа
	Amount    int64     // Сумма в минорных единицах валюты
	Currency  string    // Код валюты, например INR
	OrderID   string    // Идентификатор заказа, присвоенный шлюзом (уникальный)
	PaymentID *string   // Идентификатор платежа шлюза, пуст до завершения
	Status    string    // Статус: pending или completed
	Plan      string    // Тарифный план: monthly или pack
	CreatedAt time.Time // Дата создания
}

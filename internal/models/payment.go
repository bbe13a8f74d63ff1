package models

import "time"

// Статусы платежа. Платеж создается в статусе pending и ровно один раз
// переходит в completed или failed.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment представляет платеж, инициированный пользователем через
// платежный шлюз. Строка платежа append-only: после создания меняются
// только status и transaction_id.
type Payment struct {
	ID             string    // Идентификатор платежа (UUID)
	UserUID        string    // Идентификатор пользователя
	Amount         int64     // Сумма в минорных единицах
	Currency       string    // Валюта платежа
	Status         string    // Статус: pending, completed, failed
	PlanType       string    // Оплачиваемый тарифный план
	DurationMonths int       // Длительность подписки в месяцах
	TransactionID  *string   // Идентификатор транзакции шлюза (nil до подтверждения)
	CreatedAt      time.Time // Дата создания
}

// PollResult описывает исход ожидания разрешения платежа.
// TimedOut = true не является ошибкой: платеж может быть подтвержден
// позже отложенным вебхуком.
type PollResult struct {
	Status   string `json:"status"`
	TimedOut bool   `json:"timed_out"`
}

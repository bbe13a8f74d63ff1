// Package models содержит доменные структуры движка прав доступа:
// пользователи, записи подписок, промокоды, платежи и устройства.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя. Статусы trial и premium интерпретируются
// лениво: если дата окончания уже в прошлом, читатель обязан трактовать
// запись как expired, не дожидаясь фонового обновления строки.
const (
	SubscriptionFree    = "free"
	SubscriptionTrial   = "trial"
	SubscriptionPremium = "premium"
	SubscriptionExpired = "expired"
)

// Роли пользователей.
const (
	RoleAdmin     = "admin"
	RoleSpectator = "spectator"
)

// Типы тарифных планов.
const (
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
	PlanYearly    = "yearly"
)

// User представляет зарегистрированного пользователя вместе с его
// записью подписки (отношение 1:1, хранится в той же строке).
type User struct {
	UUID               string     // Уникальный идентификатор пользователя
	Email              string     // Электронная почта
	Username           string     // Имя пользователя (уникальное)
	PasswordHash       string     // Хэш пароля пользователя
	Role               string     // Роль пользователя, admin или spectator
	SubscriptionStatus string     // Статус подписки: free, trial, premium, expired
	PlanType           *string    // Тип тарифного плана (nil, если не назначен)
	SubscriptionExpiry *time.Time // Дата окончания подписки или пробного периода
	LastPaymentDate    *time.Time // Дата последнего успешного платежа
	PaymentAmount      int64      // Сумма последнего платежа в минорных единицах
	TotalSpent         int64      // Сумма всех платежей, только растет
	TotalPayments      int        // Количество успешных платежей, только растет
	CreatedAt          time.Time  // Дата создания учетной записи
}

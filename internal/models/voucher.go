package models

import "time"

// Статусы промокода.
const (
	VoucherActive   = "active"
	VoucherInactive = "inactive"
)

// Voucher представляет промокод, который пользователь может погасить
// в обмен на премиум‑доступ фиксированной длительности.
// Счетчик CurrentUses только растет и никогда не превышает MaxUses.
type Voucher struct {
	ID             int        // Идентификатор промокода
	Code           string     // Код, хранится нормализованным (верхний регистр, без пробелов)
	DurationMonths int        // Длительность предоставляемого доступа в месяцах
	Amount         int64      // Номинальная стоимость в минорных единицах
	PlanType       string     // Тип тарифного плана, который выдается при погашении
	MaxUses        int        // Максимальное количество погашений
	CurrentUses    int        // Текущее количество погашений
	Status         string     // Статус: active или inactive
	ExpiresAt      *time.Time // Срок действия кода (nil — бессрочный)
	CreatedAt      time.Time  // Дата создания
}

// Redemption представляет факт погашения промокода пользователем.
// Пара (voucher_id, user_uid) уникальна: один и тот же код нельзя
// погасить одним пользователем дважды.
type Redemption struct {
	VoucherID int       // Идентификатор промокода
	UserUID   string    // Идентификатор пользователя
	UsedAt    time.Time // Момент погашения
}

// VoucherGrant описывает результат успешного погашения промокода.
type VoucherGrant struct {
	PlanType       string     `json:"plan_type"`       // Назначенный тарифный план
	DurationMonths int        `json:"duration_months"` // Длительность доступа в месяцах
	ExpiresAt      *time.Time `json:"expires_at"`      // Новая дата окончания подписки
}

// VoucherCheck описывает результат предварительной проверки кода
// без побочных эффектов: счетчик погашений не изменяется.
type VoucherCheck struct {
	Valid    bool   `json:"valid"`               // Пройдены ли все проверки
	Reason   string `json:"reason,omitempty"`    // Причина отказа, если Valid = false
	PlanType string `json:"plan_type,omitempty"` // Тарифный план кода
	Amount   int64  `json:"amount,omitempty"`    // Номинальная стоимость кода
}

package models

import "time"

// Device представляет регистрацию устройства пользователя.
// Количество активных устройств на пользователя ограничено настройкой,
// лимит проверяется при входе в систему.
type Device struct {
	DeviceID     string    `json:"device_id"`     // Идентификатор устройства
	UserUID      string    `json:"-"`             // Идентификатор пользователя
	Active       bool      `json:"active"`        // Признак активной регистрации
	RegisteredAt time.Time `json:"registered_at"` // Момент регистрации
}

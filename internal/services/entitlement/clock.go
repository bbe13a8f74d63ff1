// Package entitlement содержит бизнес-логику решений о доступе:
// ленивую интерпретацию записи подписки, единую точку чтения для
// защищенного контента и проверку при входе с предупреждениями
// об истечении срока.
package entitlement

import (
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// State результат интерпретации записи подписки на момент времени now.
// Запись со статусом trial или premium и датой окончания в прошлом
// трактуется как expired без перезаписи строки в базе.
type State struct {
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
}

// Evaluate вычисляет текущее состояние подписки. Чистая функция без
// побочных эффектов, все читатели обязаны пользоваться только ею.
func Evaluate(u *models.User, now time.Time) State {
	if u.SubscriptionStatus == models.SubscriptionFree || u.SubscriptionExpiry == nil {
		return State{Status: models.SubscriptionFree}
	}
	if !u.SubscriptionExpiry.After(now) {
		return State{Status: models.SubscriptionExpired, DaysRemaining: 0}
	}
	return State{
		Status:        u.SubscriptionStatus,
		DaysRemaining: daysRemaining(*u.SubscriptionExpiry, now),
	}
}

// daysRemaining считает количество оставшихся дней с округлением вверх:
// подписка, истекающая через час, имеет один оставшийся день.
func daysRemaining(expiry, now time.Time) int {
	d := expiry.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// IsActive сообщает, дает ли состояние доступ к платному контенту.
func (s State) IsActive() bool {
	return s.Status == models.SubscriptionTrial || s.Status == models.SubscriptionPremium
}

package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// UserRepository доступ к записям подписок пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GrantPremium(ctx context.Context, userUID string, months int, now time.Time) (time.Time, error)
	RevokeSubscription(ctx context.Context, userUID string, now time.Time) error
}

// Cache краткоживущий кэш решений о доступе.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier отправляет уведомления об истечении подписки.
type Notifier interface {
	NotifyUser(msg models.UserNotification) error
	NotifyAdmins(msg models.AdminNotification) error
}

// LoginCheck результат проверки подписки при входе в систему.
type LoginCheck struct {
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	ShowWarning   bool   `json:"show_warning"`
	Severity      string `json:"severity,omitempty"` // warning или error
	Message       string `json:"message,omitempty"`
}

// Service единая точка принятия решений о доступе.
type Service struct {
	log      *slog.Logger
	users    UserRepository
	cache    Cache
	notifier Notifier
	cacheTTL time.Duration
}

// New создает сервис решений о доступе.
func New(log *slog.Logger, users UserRepository, cache Cache, notifier Notifier, cacheTTL time.Duration) *Service {
	return &Service{
		log:      log,
		users:    users,
		cache:    cache,
		notifier: notifier,
		cacheTTL: cacheTTL,
	}
}

func accessCacheKey(userUID string) string {
	return "entitlement:" + userUID
}

// State возвращает актуальное состояние подписки пользователя,
// всегда минуя кэш.
func (s *Service) State(ctx context.Context, userUID string) (State, error) {
	const op = "services.entitlement.State"
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", op, err)
	}
	return Evaluate(user, time.Now().UTC()), nil
}

// HasActiveSubscription сообщает, есть ли у пользователя доступ к платному
// контенту. Решение кэшируется на короткое время; forceRefresh пропускает
// кэш и нужен сразу после оплаты или погашения промокода.
func (s *Service) HasActiveSubscription(ctx context.Context, userUID string, forceRefresh bool) (bool, error) {
	const op = "services.entitlement.HasActiveSubscription"

	key := accessCacheKey(userUID)
	if !forceRefresh {
		var cached bool
		found, err := s.cache.Get(key, &cached)
		if err != nil {
			s.log.Warn("access cache read failed", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	active := Evaluate(user, time.Now().UTC()).IsActive()

	if err := s.cache.Set(key, active, s.cacheTTL); err != nil {
		s.log.Warn("access cache write failed", sl.Err(err))
	}
	return active, nil
}

// GrantPremium продлевает премиум-доступ пользователя на months месяцев
// от текущей даты окончания (или от текущего момента, если подписка
// уже истекла) и сбрасывает кэш решения.
func (s *Service) GrantPremium(ctx context.Context, userUID string, months int) (time.Time, error) {
	const op = "services.entitlement.GrantPremium"

	expiry, err := s.users.GrantPremium(ctx, userUID, months, time.Now().UTC())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(userUID)

	s.log.Info("premium granted",
		slog.String("user_uid", userUID),
		slog.Int("months", months),
		slog.Time("expiry", expiry))
	return expiry, nil
}

// Revoke немедленно прекращает подписку пользователя.
func (s *Service) Revoke(ctx context.Context, userUID string) error {
	const op = "services.entitlement.Revoke"

	if err := s.users.RevokeSubscription(ctx, userUID, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(userUID)

	s.log.Info("subscription revoked", slog.String("user_uid", userUID))
	return nil
}

// Invalidate сбрасывает кэшированное решение о доступе пользователя.
// Вызывается после любой операции, меняющей запись подписки.
func (s *Service) Invalidate(userUID string) {
	s.invalidate(userUID)
}

func (s *Service) invalidate(userUID string) {
	if err := s.cache.Invalidate(accessCacheKey(userUID)); err != nil {
		s.log.Warn("access cache invalidation failed",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}

// CheckOnLogin оценивает подписку при входе и формирует предупреждение,
// если до окончания остается 1 или 3 дня, либо срок уже истек.
// Уведомления отправляются fire-and-forget: их сбой не ломает вход,
// поэтому метод не возвращает ошибку — проблемы уходят в лог.
func (s *Service) CheckOnLogin(ctx context.Context, userUID string) *LoginCheck {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		s.log.Error("login check failed", slog.String("user_uid", userUID), sl.Err(err))
		return &LoginCheck{Status: models.SubscriptionFree}
	}

	st := Evaluate(user, time.Now().UTC())
	check := &LoginCheck{Status: st.Status, DaysRemaining: st.DaysRemaining}

	switch {
	case st.Status == models.SubscriptionExpired:
		check.ShowWarning = true
		check.Severity = "error"
		check.Message = "Срок действия подписки истек. Продлите подписку, чтобы вернуть доступ."
		if err := s.notifier.NotifyAdmins(models.AdminNotification{
			Title: "Вход с истекшей подпиской",
			Body:  fmt.Sprintf("Пользователь %s вошел с истекшей подпиской", user.Username),
		}); err != nil {
			s.log.Warn("admin notification failed", sl.Err(err))
		}
	case st.IsActive() && (st.DaysRemaining == 1 || st.DaysRemaining == 3):
		check.ShowWarning = true
		check.Severity = "warning"
		check.Message = fmt.Sprintf("Подписка истекает через %s.", pluralDays(st.DaysRemaining))
		if err := s.notifier.NotifyUser(models.UserNotification{
			UserUID:  user.UUID,
			Email:    user.Email,
			Username: user.Username,
			Title:    "Подписка скоро закончится",
			Body:     check.Message,
		}); err != nil {
			s.log.Warn("user notification failed", sl.Err(err))
		}
	}
	return check
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 день"
	}
	return fmt.Sprintf("%d дня", n)
}

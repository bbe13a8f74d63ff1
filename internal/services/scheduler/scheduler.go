// Package scheduler периодически находит подписки, срок которых подходит
// к концу, и публикует уведомления в брокер.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/rabbitmq"
)

// SubscriptionRepository выборки подписок по сроку окончания.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringIn(ctx context.Context, days int) ([]*models.User, error)
	FindSubscriptionsExpired(ctx context.Context) ([]*models.User, error)
}

// Service планировщик уведомлений об истечении подписок.
type Service struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// New создает планировщик уведомлений.
func New(repo SubscriptionRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RunExpiryWarnings рассылает предупреждения пользователям, чьи подписки
// истекают через 1 или 3 дня. Первый проход выполняется сразу, далее
// раз в 12 часов до отмены контекста.
func (s *Service) RunExpiryWarnings(ctx context.Context, channel *amqp.Channel) {
	s.runExpiryWarnings(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runExpiryWarnings(ctx, channel)
		}
	}
}

func (s *Service) runExpiryWarnings(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting expiry warning scan")
	for _, days := range []int{1, 3} {
		users, err := s.repo.FindSubscriptionsExpiringIn(ctx, days)
		if err != nil {
			s.log.Error("failed to find expiring subscriptions", sl.Err(err))
			continue
		}
		if len(users) == 0 {
			continue
		}
		s.log.Info("found expiring subscriptions", "days", days, "count", len(users))
		for _, u := range users {
			msg := models.UserNotification{
				UserUID:  u.UUID,
				Email:    u.Email,
				Username: u.Username,
				Title:    "Подписка скоро закончится",
				Body:     fmt.Sprintf("Подписка истекает через %d дн.", days),
			}
			if err := rabbitmq.PublishMessage(channel, rabbitmq.Exchange, rabbitmq.UserRoutingKey, msg); err != nil {
				s.log.Error("failed to publish message", sl.Err(err))
			}
		}
	}
}

// RunExpiredReport раз в сутки отправляет администраторам сводку
// по подпискам, срок которых уже истек.
func (s *Service) RunExpiredReport(ctx context.Context, channel *amqp.Channel) {
	s.runExpiredReport(ctx, channel)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runExpiredReport(ctx, channel)
		}
	}
}

func (s *Service) runExpiredReport(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting expired subscriptions scan")
	users, err := s.repo.FindSubscriptionsExpired(ctx)
	if err != nil {
		s.log.Error("failed to find expired subscriptions", sl.Err(err))
		return
	}
	if len(users) == 0 {
		s.log.Info("no expired subscriptions found")
		return
	}
	s.log.Info("found expired subscriptions", "count", len(users))
	msg := models.AdminNotification{
		Title: "Истекшие подписки",
		Body:  fmt.Sprintf("Количество пользователей с истекшей подпиской: %d", len(users)),
	}
	if err := rabbitmq.PublishMessage(channel, rabbitmq.Exchange, rabbitmq.AdminRoutingKey, msg); err != nil {
		s.log.Error("failed to publish message", sl.Err(err))
	}
}

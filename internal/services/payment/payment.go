// Package payment реализует создание платежей через внешний шлюз
// и идемпотентную сверку их итогового статуса.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/entitlement-engine/internal/config"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/paymentprovider"
)

// Repository доступ к платежам в хранилище.
type Repository interface {
	CreatePayment(ctx context.Context, p models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID, transactionID, status string, now time.Time) (bool, error)
}

// GatewayClient клиент платежного шлюза.
type GatewayClient interface {
	CreatePayment(req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
	GetPayment(paymentID string) (*paymentprovider.PaymentInfo, error)
}

// AccessInvalidator сбрасывает кэш решения о доступе после изменения подписки.
type AccessInvalidator interface {
	Invalidate(userUID string)
}

// Service сервис платежей.
type Service struct {
	log     *slog.Logger
	repo    Repository
	gateway GatewayClient
	access  AccessInvalidator
	plans   config.Plans
	gwCfg   config.Gateway
}

// New создает сервис платежей.
func New(log *slog.Logger, repo Repository, gateway GatewayClient,
	access AccessInvalidator, plans config.Plans, gwCfg config.Gateway) *Service {
	return &Service{
		log:     log,
		repo:    repo,
		gateway: gateway,
		access:  access,
		plans:   plans,
		gwCfg:   gwCfg,
	}
}

// CreateResult результат создания платежа: локальная запись и адрес
// страницы подтверждения на стороне шлюза.
type CreateResult struct {
	Payment         *models.Payment
	ConfirmationURL string
}

// Create регистрирует платеж в шлюзе и сохраняет локальную запись
// в статусе pending. Сумма и длительность берутся из тарифного плана.
func (s *Service) Create(ctx context.Context, userUID, planType string) (*CreateResult, error) {
	const op = "services.payment.Create"

	plan, ok := s.plans.ByType(planType)
	if !ok {
		return nil, fmt.Errorf("%s: unknown plan type: %s", op, planType)
	}

	resp, err := s.gateway.CreatePayment(paymentprovider.CreatePaymentRequest{
		Amount: paymentprovider.Amount{
			Value:    formatAmount(plan.Amount),
			Currency: s.gwCfg.Currency,
		},
		Capture:     true,
		Description: fmt.Sprintf("Подписка, план %s", planType),
		Confirmation: paymentprovider.Confirmation{
			Type:      "redirect",
			ReturnURL: s.gwCfg.ReturnURL,
		},
		Metadata: map[string]string{
			"user_uid":  userUID,
			"plan_type": planType,
		},
	})
	if err != nil {
		s.log.Error("gateway payment creation failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Payment{
		ID:             resp.ID,
		UserUID:        userUID,
		Amount:         plan.Amount,
		Currency:       s.gwCfg.Currency,
		Status:         models.PaymentPending,
		PlanType:       planType,
		DurationMonths: plan.Months,
		CreatedAt:      time.Now().UTC(),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment created",
		slog.String("payment_id", p.ID),
		slog.String("user_uid", userUID),
		slog.String("plan_type", planType))
	return &CreateResult{Payment: &p, ConfirmationURL: resp.Confirmation.ConfirmationURL}, nil
}

// Confirm фиксирует итоговый статус платежа. Операция идемпотентна:
// подписку продлевает только первый переход pending -> completed,
// повторные вызовы с любым статусом ничего не меняют.
func (s *Service) Confirm(ctx context.Context, paymentID, transactionID, status string) error {
	const op = "services.payment.Confirm"

	if status != models.PaymentCompleted && status != models.PaymentFailed {
		return fmt.Errorf("%s: invalid final status: %s", op, status)
	}

	first, err := s.repo.ConfirmPayment(ctx, paymentID, transactionID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !first {
		s.log.Info("payment already resolved, confirmation ignored",
			slog.String("payment_id", paymentID))
		return nil
	}

	if status == models.PaymentCompleted {
		p, err := s.repo.GetPayment(ctx, paymentID)
		if err != nil {
			s.log.Error("failed to reload confirmed payment", sl.Err(err))
		} else {
			s.access.Invalidate(p.UserUID)
		}
	}

	s.log.Info("payment confirmed",
		slog.String("payment_id", paymentID),
		slog.String("status", status))
	return nil
}

// Status возвращает текущее состояние платежа из хранилища.
func (s *Service) Status(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "services.payment.Status"
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// PollUntilResolved ждет разрешения платежа, периодически проверяя
// локальную запись и опрашивая шлюз. Между проверками блокировки не
// держатся. Выход по таймауту не является ошибкой: статус остается
// pending и может быть закрыт позже отложенным вебхуком. Отмена
// контекста прерывает ожидание с ctx.Err().
func (s *Service) PollUntilResolved(ctx context.Context, paymentID string, interval, timeout time.Duration) (*models.PollResult, error) {
	const op = "services.payment.PollUntilResolved"

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		p, err := s.repo.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.Status != models.PaymentPending {
			return &models.PollResult{Status: p.Status}, nil
		}

		// Шлюз мог разрешить платеж раньше, чем дошел вебхук.
		if info, err := s.gateway.GetPayment(paymentID); err != nil {
			s.log.Warn("gateway poll failed", sl.Err(err))
		} else if final, ok := mapGatewayStatus(info.Status); ok {
			if err := s.Confirm(ctx, paymentID, info.TransactionID, final); err != nil {
				s.log.Error("failed to confirm polled payment", sl.Err(err))
			} else {
				return &models.PollResult{Status: final}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return &models.PollResult{Status: models.PaymentPending, TimedOut: true}, nil
		case <-ticker.C:
		}
	}
}

// mapGatewayStatus переводит терминальный статус шлюза во внутренний.
func mapGatewayStatus(gatewayStatus string) (string, bool) {
	switch gatewayStatus {
	case paymentprovider.StatusSucceeded:
		return models.PaymentCompleted, true
	case paymentprovider.StatusCanceled:
		return models.PaymentFailed, true
	default:
		return "", false
	}
}

// formatAmount переводит сумму из минорных единиц в строку вида "200.00".
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

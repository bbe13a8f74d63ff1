// Package voucher реализует погашение и администрирование промокодов.
package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Repository доступ к промокодам и фактам их погашения.
type Repository interface {
	RedeemVoucher(ctx context.Context, code, userUID string, now time.Time) (*models.VoucherGrant, error)
	GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error)
	FindRedemption(ctx context.Context, voucherID int, userUID string) (bool, error)
	CreateVoucher(ctx context.Context, v models.Voucher) (int, error)
	RemoveVoucher(ctx context.Context, code string) (int, error)
}

// AccessInvalidator сбрасывает кэш решения о доступе после изменения подписки.
type AccessInvalidator interface {
	Invalidate(userUID string)
}

// Service сервис промокодов.
type Service struct {
	log    *slog.Logger
	repo   Repository
	access AccessInvalidator
}

// New создает сервис промокодов.
func New(log *slog.Logger, repo Repository, access AccessInvalidator) *Service {
	return &Service{log: log, repo: repo, access: access}
}

// NormalizeCode приводит код к каноническому виду: без краевых пробелов,
// в верхнем регистре. "  promo50 " и "PROMO50" — один и тот же код.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem погашает промокод для пользователя. Все проверки и изменения
// выполняются в одной транзакции хранилища, поэтому конкурирующие
// запросы на последнее использование кода разрешаются строго по одному.
func (s *Service) Redeem(ctx context.Context, code, userUID string) (*models.VoucherGrant, error) {
	const op = "services.voucher.Redeem"

	grant, err := s.repo.RedeemVoucher(ctx, NormalizeCode(code), userUID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.access.Invalidate(userUID)

	s.log.Info("voucher redeemed",
		slog.String("user_uid", userUID),
		slog.String("plan_type", grant.PlanType),
		slog.Int("duration_months", grant.DurationMonths))
	return grant, nil
}

// Validate проверяет код без побочных эффектов: счетчик погашений не
// меняется. Результат не резервирует использование — к моменту
// настоящего погашения код может быть уже исчерпан.
func (s *Service) Validate(ctx context.Context, code, userUID string) (*models.VoucherCheck, error) {
	const op = "services.voucher.Validate"

	v, err := s.repo.GetVoucherByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, models.ErrVoucherNotFound) {
			return &models.VoucherCheck{Valid: false, Reason: "not_found"}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	check := &models.VoucherCheck{PlanType: v.PlanType, Amount: v.Amount}
	now := time.Now().UTC()
	switch {
	case v.Status != models.VoucherActive:
		check.Reason = "inactive"
	case v.ExpiresAt != nil && !v.ExpiresAt.After(now):
		check.Reason = "expired"
	case v.CurrentUses >= v.MaxUses:
		check.Reason = "exhausted"
	default:
		redeemed, err := s.repo.FindRedemption(ctx, v.ID, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if redeemed {
			check.Reason = "already_redeemed"
		} else {
			check.Valid = true
		}
	}
	return check, nil
}

// Create добавляет новый промокод. Код сохраняется нормализованным.
func (s *Service) Create(ctx context.Context, v models.Voucher) (int, error) {
	const op = "services.voucher.Create"

	v.Code = NormalizeCode(v.Code)
	if v.Status == "" {
		v.Status = models.VoucherActive
	}
	id, err := s.repo.CreateVoucher(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("voucher created", slog.Int("voucher_id", id))
	return id, nil
}

// Remove удаляет промокод по коду.
func (s *Service) Remove(ctx context.Context, code string) error {
	const op = "services.voucher.Remove"

	rows, err := s.repo.RemoveVoucher(ctx, NormalizeCode(code))
	if err != nil {
		s.log.Error("failed to remove voucher", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrVoucherNotFound)
	}
	return nil
}

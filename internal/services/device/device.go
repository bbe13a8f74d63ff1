// Package device реализует учет устройств и лимит активных регистраций.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Repository доступ к регистрациям устройств.
type Repository interface {
	RegisterDevice(ctx context.Context, userUID, deviceID string, limit int, now time.Time) ([]*models.Device, error)
	DeactivateDevice(ctx context.Context, userUID, deviceID string) error
	ListActiveDevices(ctx context.Context, userUID string) ([]*models.Device, error)
}

// Service сервис учета устройств.
type Service struct {
	log   *slog.Logger
	repo  Repository
	limit int
}

// New создает сервис устройств с лимитом активных регистраций.
func New(log *slog.Logger, repo Repository, limit int) *Service {
	return &Service{log: log, repo: repo, limit: limit}
}

// Register регистрирует устройство пользователя. Повторная регистрация
// уже активного устройства проходит успешно и не занимает новый слот.
// При превышении лимита возвращается ErrDeviceLimitExceeded вместе со
// списком активных устройств, чтобы пользователь мог освободить слот.
func (s *Service) Register(ctx context.Context, userUID, deviceID string) ([]*models.Device, error) {
	const op = "services.device.Register"

	devices, err := s.repo.RegisterDevice(ctx, userUID, deviceID, s.limit, time.Now().UTC())
	if err != nil {
		return devices, fmt.Errorf("%s: %w", op, err)
	}
	return devices, nil
}

// Deactivate освобождает слот устройства. Операция идемпотентна.
func (s *Service) Deactivate(ctx context.Context, userUID, deviceID string) error {
	const op = "services.device.Deactivate"

	if err := s.repo.DeactivateDevice(ctx, userUID, deviceID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("device deactivated",
		slog.String("user_uid", userUID),
		slog.String("device_id", deviceID))
	return nil
}

// ListActive возвращает активные устройства пользователя.
func (s *Service) ListActive(ctx context.Context, userUID string) ([]*models.Device, error) {
	const op = "services.device.ListActive"

	devices, err := s.repo.ListActiveDevices(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return devices, nil
}

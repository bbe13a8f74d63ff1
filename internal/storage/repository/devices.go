package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// RegisterDevice регистрирует устройство пользователя, не позволяя превысить
// лимит активных устройств. Перед подсчетом транзакция блокирует строку
// пользователя, поэтому два конкурентных входа считают слоты строго по
// очереди и не могут оба занять последний свободный. Блокировка самих строк
// устройств для этого недостаточна: вставка другой транзакции — фантом,
// невидимый после ее коммита на уровне READ COMMITTED.
// Повторная регистрация уже активного устройства не является ошибкой.
// При превышении лимита возвращается список активных устройств вместе
// с ошибкой models.ErrDeviceLimitExceeded.
func (s *Storage) RegisterDevice(ctx context.Context, userUID, deviceID string, limit int, now time.Time) ([]*models.Device, error) {
	const op = "storage.RegisterDevice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT uid FROM users WHERE uid = $1 FOR UPDATE`
	var lockedUID string
	if err = tx.QueryRowContext(ctx, query, userUID).Scan(&lockedUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `SELECT device_id, registered_at
			 FROM devices
			 WHERE user_uid = $1 AND active = true
			 ORDER BY registered_at`
	rows, err := tx.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var active []*models.Device
	alreadyRegistered := false
	for rows.Next() {
		d := models.Device{UserUID: userUID, Active: true}
		if err = rows.Scan(&d.DeviceID, &d.RegisteredAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if d.DeviceID == deviceID {
			alreadyRegistered = true
		}
		active = append(active, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if alreadyRegistered {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return active, nil
	}

	if len(active) >= limit {
		return active, fmt.Errorf("%s: %w", op, models.ErrDeviceLimitExceeded)
	}

	query = `INSERT INTO devices (user_uid, device_id, active, registered_at)
			 VALUES ($1, $2, true, $3)
			 ON CONFLICT (user_uid, device_id)
			 DO UPDATE SET active = true, registered_at = EXCLUDED.registered_at`
	if _, err = tx.ExecContext(ctx, query, userUID, deviceID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return active, nil
}

// DeactivateDevice помечает регистрацию устройства неактивной.
// Деактивация неизвестного или уже неактивного устройства не является ошибкой.
func (s *Storage) DeactivateDevice(ctx context.Context, userUID, deviceID string) error {
	const op = "storage.DeactivateDevice"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE devices
			  SET active = false
			  WHERE user_uid = $1 AND device_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, userUID, deviceID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActiveDevices возвращает список активных устройств пользователя.
func (s *Storage) ListActiveDevices(ctx context.Context, userUID string) ([]*models.Device, error) {
	const op = "storage.ListActiveDevices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT device_id, registered_at
			  FROM devices
			  WHERE user_uid = $1 AND active = true
			  ORDER BY registered_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Device
	for rows.Next() {
		d := models.Device{UserUID: userUID, Active: true}
		if err = rows.Scan(&d.DeviceID, &d.RegisteredAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

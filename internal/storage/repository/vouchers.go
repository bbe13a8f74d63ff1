package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// CreateVoucher вставляет новый промокод и возвращает его ID.
func (s *Storage) CreateVoucher(ctx context.Context, v models.Voucher) (int, error) {
	const op = "storage.CreateVoucher"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO vouchers (code, duration_months, amount, plan_type,
			      max_uses, status, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		v.Code, v.DurationMonths, v.Amount, v.PlanType,
		v.MaxUses, v.Status, v.ExpiresAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// RemoveVoucher удаляет промокод по коду и возвращает количество удалённых строк.
func (s *Storage) RemoveVoucher(ctx context.Context, code string) (int, error) {
	const op = "storage.RemoveVoucher"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM vouchers WHERE code = $1`
	result, err := s.DB.ExecContext(ctx, query, code)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetVoucherByCode возвращает промокод по нормализованному коду без блокировки.
// Используется для предварительной проверки кода.
func (s *Storage) GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	const op = "storage.GetVoucherByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, code, duration_months, amount, plan_type, max_uses,
			      current_uses, status, expires_at, created_at
			  FROM vouchers
			  WHERE code = $1`
	v := &models.Voucher{}
	var expiresAt sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, code)
	if err := row.Scan(&v.ID, &v.Code, &v.DurationMonths, &v.Amount, &v.PlanType,
		&v.MaxUses, &v.CurrentUses, &v.Status, &expiresAt, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expiresAt.Valid {
		v.ExpiresAt = &expiresAt.Time
	}
	return v, nil
}

// FindRedemption проверяет, гасил ли пользователь данный промокод.
func (s *Storage) FindRedemption(ctx context.Context, voucherID int, userUID string) (bool, error) {
	const op = "storage.FindRedemption"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM voucher_redemptions
			      WHERE voucher_id = $1 AND user_uid = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, voucherID, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// RedeemVoucher атомарно гасит промокод для пользователя: блокирует строку
// промокода, выполняет все бизнес-проверки, инкрементирует счетчик погашений
// условным UPDATE, вставляет запись о погашении и продлевает подписку
// пользователя. Либо фиксируется вся последовательность, либо ничего.
//
// Два конкурентных погашения не могут оба пройти проверку current_uses < max_uses:
// вторая транзакция ждет на FOR UPDATE и видит уже увеличенный счетчик.
func (s *Storage) RedeemVoucher(ctx context.Context, code, userUID string, now time.Time) (*models.VoucherGrant, error) {
	const op = "storage.RedeemVoucher"
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

	query := `SELECT id, duration_months, plan_type, max_uses, current_uses, status, expires_at
			  FROM vouchers
			  WHERE code = $1
			  FOR UPDATE`
	var (
		voucherID      int
		durationMonths int
		planType       string
		maxUses        int
		currentUses    int
		status         string
		expiresAt      sql.NullTime
	)
	row := tx.QueryRowContext(ctx, query, code)
	if err = row.Scan(&voucherID, &durationMonths, &planType, &maxUses,
		&currentUses, &status, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case status != models.VoucherActive:
		return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherInactive)
	case expiresAt.Valid && !expiresAt.Time.After(now):
		return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherExpired)
	case currentUses >= maxUses:
		return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherExhausted)
	}

	var alreadyRedeemed bool
	query = `SELECT EXISTS (
			     SELECT 1 FROM voucher_redemptions
			     WHERE voucher_id = $1 AND user_uid = $2
			 )`
	if err = tx.QueryRowContext(ctx, query, voucherID, userUID).Scan(&alreadyRedeemed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if alreadyRedeemed {
		return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherAlreadyRedeemed)
	}

	query = `UPDATE vouchers
			 SET current_uses = current_uses + 1
			 WHERE id = $1 AND current_uses < max_uses`
	result, err := tx.ExecContext(ctx, query, voucherID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrVoucherExhausted)
	}

	query = `INSERT INTO voucher_redemptions (voucher_id, user_uid, used_at)
			 VALUES ($1, $2, $3)`
	if _, err = tx.ExecContext(ctx, query, voucherID, userUID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE users
			 SET subscription_status = 'premium',
			     plan_type = $2,
			     subscription_expiry = GREATEST(COALESCE(subscription_expiry, $3), $3) + make_interval(months => $4)
			 WHERE uid = $1
			 RETURNING subscription_expiry`
	var newExpiry time.Time
	if err = tx.QueryRowContext(ctx, query, userUID, planType, now, durationMonths).Scan(&newExpiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.VoucherGrant{
		PlanType:       planType,
		DurationMonths: durationMonths,
		ExpiresAt:      &newExpiry,
	}, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// CreatePayment сохраняет новый платеж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) error {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (id, user_uid, amount, currency, status,
			      plan_type, duration_months)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		p.ID, p.UserUID, p.Amount, p.Currency, p.Status, p.PlanType, p.DurationMonths)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPayment возвращает платеж по его идентификатору.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, amount, currency, status, plan_type,
			      duration_months, transaction_id, created_at
			  FROM payments
			  WHERE id = $1`
	p := &models.Payment{}
	var transactionID sql.NullString
	row := s.DB.QueryRowContext(ctx, query, paymentID)
	if err := row.Scan(&p.ID, &p.UserUID, &p.Amount, &p.Currency, &p.Status,
		&p.PlanType, &p.DurationMonths, &transactionID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if transactionID.Valid {
		p.TransactionID = &transactionID.String
	}
	return p, nil
}

// ConfirmPayment переводит платеж из pending в итоговый статус и, если это
// первый переход в completed, продлевает подписку пользователя и обновляет
// счетчики платежей. Повторный вызов для уже разрешенного платежа ничего
// не меняет и возвращает first = false: сверка по одному платежу выполняется
// ровно один раз, каким бы путем ни пришло подтверждение.
func (s *Storage) ConfirmPayment(ctx context.Context, paymentID, transactionID, status string, now time.Time) (first bool, err error) {
	const op = "storage.ConfirmPayment"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT user_uid, amount, duration_months, plan_type, status
			  FROM payments
			  WHERE id = $1
			  FOR UPDATE`
	var (
		userUID        string
		amount         int64
		durationMonths int
		planType       string
		currentStatus  string
	)
	row := tx.QueryRowContext(ctx, query, paymentID)
	if err = row.Scan(&userUID, &amount, &durationMonths, &planType, &currentStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if currentStatus != models.PaymentPending {
		// Платеж уже разрешен: подтверждение пришло вторым путем
		// (webhook и опрос), запись подписки не трогаем.
		return false, nil
	}

	query = `UPDATE payments
			 SET status = $2, transaction_id = $3
			 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, query, paymentID, status, transactionID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if status == models.PaymentCompleted {
		query = `UPDATE users
				 SET subscription_status = 'premium',
				     plan_type = $2,
				     subscription_expiry = GREATEST(COALESCE(subscription_expiry, $3), $3) + make_interval(months => $4),
				     last_payment_date = $3,
				     payment_amount = $5,
				     total_spent = total_spent + $5,
				     total_payments = total_payments + 1
				 WHERE uid = $1`
		result, err := tx.ExecContext(ctx, query, userUID, planType, now, durationMonths, amount)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		if rowsAffected == 0 {
			return false, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

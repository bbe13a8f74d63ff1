package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Запись подписки создается сразу в статусе trial с датой окончания пробного периода.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role,
			      subscription_status, subscription_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role,
		user.SubscriptionStatus, user.SubscriptionExpiry).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_status,
			      plan_type, subscription_expiry, last_payment_date, payment_amount,
			      total_spent, total_payments, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_status,
			      plan_type, subscription_expiry, last_payment_date, payment_amount,
			      total_spent, total_payments, created_at
			  FROM users
			  WHERE username = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, username), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var planType sql.NullString
	var subscriptionExpiry, lastPaymentDate sql.NullTime
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.SubscriptionStatus, &planType, &subscriptionExpiry, &lastPaymentDate,
		&u.PaymentAmount, &u.TotalSpent, &u.TotalPayments, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if planType.Valid {
		u.PlanType = &planType.String
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	if lastPaymentDate.Valid {
		u.LastPaymentDate = &lastPaymentDate.Time
	}
	return u, nil
}

// GrantPremium переводит подписку пользователя в статус premium, продлевая
// дату окончания от максимума из текущей даты и уже назначенной даты окончания.
// Возвращает новую дату окончания подписки.
func (s *Storage) GrantPremium(ctx context.Context, userUID string, months int, now time.Time) (time.Time, error) {
	const op = "storage.GrantPremium"
	select {
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = 'premium',
			      subscription_expiry = GREATEST(COALESCE(subscription_expiry, $2), $2) + make_interval(months => $3)
			  WHERE uid = $1
			  RETURNING subscription_expiry`
	var expiry time.Time
	if err := s.DB.QueryRowContext(ctx, query, userUID, now, months).Scan(&expiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return expiry, nil
}

// RevokeSubscription отзывает подписку пользователя: статус становится expired,
// дата окончания усекается до текущего момента.
func (s *Storage) RevokeSubscription(ctx context.Context, userUID string, now time.Time) error {
	const op = "storage.RevokeSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = 'expired',
			      subscription_expiry = $2
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return nil
}

// FindSubscriptionsExpiringIn находит пользователей, подписка которых
// истекает ровно через заданное количество дней.
func (s *Storage) FindSubscriptionsExpiringIn(ctx context.Context, days int) ([]*models.User, error) {
	const op = "storage.FindSubscriptionsExpiringIn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_status,
			      plan_type, subscription_expiry, last_payment_date, payment_amount,
			      total_spent, total_payments, created_at
			  FROM users
			  WHERE subscription_status IN ('trial', 'premium')
			    AND subscription_expiry::DATE = CURRENT_DATE + $1;`
	return s.queryUsers(ctx, op, query, days)
}

// FindSubscriptionsExpired находит пользователей, у которых подписка
// уже истекла, но статус в строке еще не переписан.
func (s *Storage) FindSubscriptionsExpired(ctx context.Context) ([]*models.User, error) {
	const op = "storage.FindSubscriptionsExpired"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_status,
			      plan_type, subscription_expiry, last_payment_date, payment_amount,
			      total_spent, total_payments, created_at
			  FROM users
			  WHERE subscription_status IN ('trial', 'premium')
			    AND subscription_expiry < NOW();`
	return s.queryUsers(ctx, op, query)
}

func (s *Storage) queryUsers(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u := models.User{}
		var planType sql.NullString
		var subscriptionExpiry, lastPaymentDate sql.NullTime
		if err = rows.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
			&u.SubscriptionStatus, &planType, &subscriptionExpiry, &lastPaymentDate,
			&u.PaymentAmount, &u.TotalSpent, &u.TotalPayments, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planType.Valid {
			u.PlanType = &planType.String
		}
		if subscriptionExpiry.Valid {
			u.SubscriptionExpiry = &subscriptionExpiry.Time
		}
		if lastPaymentDate.Valid {
			u.LastPaymentDate = &lastPaymentDate.Time
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

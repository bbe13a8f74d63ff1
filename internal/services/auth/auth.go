// Package auth реализует регистрацию и вход пользователей.
// Вход объединяет проверку пароля, занятие слота устройства
// и проверку подписки с предупреждениями об истечении.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/password"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/services/entitlement"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
// Сообщение одинаково для несуществующего пользователя и неверного
// пароля, чтобы не раскрывать наличие учетной записи.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository доступ к учетным записям пользователей.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// DeviceGate занимает слот устройства при входе.
type DeviceGate interface {
	Register(ctx context.Context, userUID, deviceID string) ([]*models.Device, error)
}

// EntitlementChecker проверяет подписку при входе.
type EntitlementChecker interface {
	CheckOnLogin(ctx context.Context, userUID string) *entitlement.LoginCheck
}

// TokenMaker выпускает JWT токены.
type TokenMaker interface {
	GenerateToken(username, role, userUID string) (string, error)
}

// LoginResult результат успешного входа.
type LoginResult struct {
	Token string
	Role  string
	Check *entitlement.LoginCheck
}

// Service сервис аутентификации.
type Service struct {
	log          *slog.Logger
	users        UserRepository
	devices      DeviceGate
	entitlements EntitlementChecker
	tokens       TokenMaker
	trialDays    int
}

// New создает сервис аутентификации.
func New(log *slog.Logger, users UserRepository, devices DeviceGate,
	entitlements EntitlementChecker, tokens TokenMaker, trialDays int) *Service {
	return &Service{
		log:          log,
		users:        users,
		devices:      devices,
		entitlements: entitlements,
		tokens:       tokens,
		trialDays:    trialDays,
	}
}

// Register создает учетную запись и сразу выдает пробный период.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		s.log.Error("failed to hash password", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	trialExpiry := time.Now().UTC().AddDate(0, 0, s.trialDays)
	uid, err := s.users.RegisterUser(ctx, models.User{
		Email:              email,
		Username:           username,
		PasswordHash:       hash,
		Role:               models.RoleSpectator,
		SubscriptionStatus: models.SubscriptionTrial,
		SubscriptionExpiry: &trialExpiry,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered",
		slog.String("user_uid", uid),
		slog.String("username", username),
		slog.Time("trial_expiry", trialExpiry))
	return uid, nil
}

// Login проверяет учетные данные, занимает слот устройства и оценивает
// подписку. При превышении лимита устройств вход не выполняется,
// а вызывающему возвращается список активных устройств пользователя.
func (s *Service) Login(ctx context.Context, username, rawPassword, deviceID string) (*LoginResult, []*models.Device, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	devices, err := s.devices.Register(ctx, user.UUID, deviceID)
	if err != nil {
		if errors.Is(err, models.ErrDeviceLimitExceeded) {
			return nil, devices, fmt.Errorf("%s: %w", op, models.ErrDeviceLimitExceeded)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		s.log.Error("failed to generate token", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	check := s.entitlements.CheckOnLogin(ctx, user.UUID)

	s.log.Info("user logged in",
		slog.String("user_uid", user.UUID),
		slog.String("device_id", deviceID),
		slog.String("subscription_status", check.Status))
	return &LoginResult{Token: token, Role: user.Role, Check: check}, nil, nil
}

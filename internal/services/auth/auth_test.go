package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/services/entitlement"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type DeviceGateMock struct{ mock.Mock }

func (m *DeviceGateMock) Register(ctx context.Context, userUID, deviceID string) ([]*models.Device, error) {
	args := m.Called(ctx, userUID, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Device), args.Error(1)
}

type CheckerMock struct{ mock.Mock }

func (m *CheckerMock) CheckOnLogin(ctx context.Context, userUID string) *entitlement.LoginCheck {
	args := m.Called(ctx, userUID)
	return args.Get(0).(*entitlement.LoginCheck)
}

type TokenMakerMock struct{ mock.Mock }

func (m *TokenMakerMock) GenerateToken(username, role, userUID string) (string, error) {
	args := m.Called(username, role, userUID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const testUID = "f8a1f3ea-2f6b-4f55-9c7d-444444444444"

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newService(users *UserRepoMock, devices *DeviceGateMock, checker *CheckerMock, tokens *TokenMakerMock) *Service {
	return New(newNoopLogger(), users, devices, checker, tokens, 7)
}

func TestRegister_GrantsTrial(t *testing.T) {
	users := new(UserRepoMock)

	users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		if u.SubscriptionStatus != models.SubscriptionTrial || u.Role != models.RoleSpectator {
			return false
		}
		if u.SubscriptionExpiry == nil {
			return false
		}
		left := time.Until(*u.SubscriptionExpiry)
		return left > 6*24*time.Hour && left <= 7*24*time.Hour
	})).Return(testUID, nil).Once()

	svc := newService(users, new(DeviceGateMock), new(CheckerMock), new(TokenMakerMock))
	uid, err := svc.Register(context.Background(), "user@example.com", "user", "secret1")

	require.NoError(t, err)
	assert.Equal(t, testUID, uid)
	users.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	users := new(UserRepoMock)
	devices := new(DeviceGateMock)
	checker := new(CheckerMock)
	tokens := new(TokenMakerMock)

	users.On("GetUserByUsername", mock.Anything, "user").Return(&models.User{
		UUID:         testUID,
		Username:     "user",
		PasswordHash: hashFor(t, "secret1"),
		Role:         models.RoleSpectator,
	}, nil).Once()
	devices.On("Register", mock.Anything, testUID, "device-1").
		Return([]*models.Device{{DeviceID: "device-1", Active: true}}, nil).Once()
	tokens.On("GenerateToken", "user", models.RoleSpectator, testUID).
		Return("jwt-token", nil).Once()
	checker.On("CheckOnLogin", mock.Anything, testUID).
		Return(&entitlement.LoginCheck{Status: models.SubscriptionTrial, DaysRemaining: 5}).Once()

	svc := newService(users, devices, checker, tokens)
	result, limitDevices, err := svc.Login(context.Background(), "user", "secret1", "device-1")

	require.NoError(t, err)
	assert.Nil(t, limitDevices)
	assert.Equal(t, "jwt-token", result.Token)
	assert.Equal(t, models.RoleSpectator, result.Role)
	assert.Equal(t, models.SubscriptionTrial, result.Check.Status)
}

func TestLogin_UnknownUser(t *testing.T) {
	users := new(UserRepoMock)
	users.On("GetUserByUsername", mock.Anything, "ghost").
		Return(nil, models.ErrUserNotFound).Once()

	svc := newService(users, new(DeviceGateMock), new(CheckerMock), new(TokenMakerMock))
	_, _, err := svc.Login(context.Background(), "ghost", "secret1", "device-1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	users.On("GetUserByUsername", mock.Anything, "user").Return(&models.User{
		UUID:         testUID,
		Username:     "user",
		PasswordHash: hashFor(t, "secret1"),
	}, nil).Once()

	svc := newService(users, new(DeviceGateMock), new(CheckerMock), new(TokenMakerMock))
	_, _, err := svc.Login(context.Background(), "user", "wrong-pass", "device-1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DeviceLimitAbortsLogin(t *testing.T) {
	users := new(UserRepoMock)
	devices := new(DeviceGateMock)
	tokens := new(TokenMakerMock)
	checker := new(CheckerMock)

	active := []*models.Device{
		{DeviceID: "a", Active: true},
		{DeviceID: "b", Active: true},
		{DeviceID: "c", Active: true},
	}
	users.On("GetUserByUsername", mock.Anything, "user").Return(&models.User{
		UUID:         testUID,
		Username:     "user",
		PasswordHash: hashFor(t, "secret1"),
	}, nil).Once()
	devices.On("Register", mock.Anything, testUID, "device-4").
		Return(active, models.ErrDeviceLimitExceeded).Once()

	svc := newService(users, devices, checker, tokens)
	result, limitDevices, err := svc.Login(context.Background(), "user", "secret1", "device-4")

	assert.ErrorIs(t, err, models.ErrDeviceLimitExceeded)
	assert.Nil(t, result)
	assert.Len(t, limitDevices, 3)
	tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
	checker.AssertNotCalled(t, "CheckOnLogin", mock.Anything, mock.Anything)
}

package payment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlement-engine/internal/config"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePayment(ctx context.Context, p models.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *RepoMock) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) ConfirmPayment(ctx context.Context, paymentID, transactionID, status string, now time.Time) (bool, error) {
	args := m.Called(ctx, paymentID, transactionID, status, now)
	return args.Bool(0), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreatePayment(req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CreatePaymentResponse), args.Error(1)
}
func (m *GatewayMock) GetPayment(paymentID string) (*paymentprovider.PaymentInfo, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentInfo), args.Error(1)
}

type InvalidatorMock struct{ mock.Mock }

func (m *InvalidatorMock) Invalidate(userUID string) {
	m.Called(userUID)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const (
	testUID       = "f8a1f3ea-2f6b-4f55-9c7d-333333333333"
	testPaymentID = "pay-123"
)

var testPlans = config.Plans{
	Monthly:   config.Plan{Months: 1, Amount: 10000},
	Quarterly: config.Plan{Months: 3, Amount: 27000},
	Yearly:    config.Plan{Months: 12, Amount: 96000},
}

var testGateway = config.Gateway{Currency: "MAD", ReturnURL: "https://example.com/return"}

func newService(repo *RepoMock, gw *GatewayMock, access *InvalidatorMock) *Service {
	return New(newNoopLogger(), repo, gw, access, testPlans, testGateway)
}

func TestCreate_Success(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)

	gw.On("CreatePayment", mock.MatchedBy(func(req paymentprovider.CreatePaymentRequest) bool {
		return req.Amount.Value == "100.00" &&
			req.Amount.Currency == "MAD" &&
			req.Metadata["user_uid"] == testUID
	})).Return(&paymentprovider.CreatePaymentResponse{
		ID:     testPaymentID,
		Status: paymentprovider.StatusPending,
		Confirmation: paymentprovider.Confirmation{
			ConfirmationURL: "https://gateway.example.com/confirm/pay-123",
		},
	}, nil).Once()
	repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.ID == testPaymentID &&
			p.UserUID == testUID &&
			p.Status == models.PaymentPending &&
			p.Amount == 10000 &&
			p.DurationMonths == 1
	})).Return(nil).Once()

	svc := newService(repo, gw, new(InvalidatorMock))
	result, err := svc.Create(context.Background(), testUID, models.PlanMonthly)

	require.NoError(t, err)
	assert.Equal(t, testPaymentID, result.Payment.ID)
	assert.Equal(t, "https://gateway.example.com/confirm/pay-123", result.ConfirmationURL)
	repo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCreate_UnknownPlan(t *testing.T) {
	svc := newService(new(RepoMock), new(GatewayMock), new(InvalidatorMock))
	_, err := svc.Create(context.Background(), testUID, "lifetime")
	assert.Error(t, err)
}

func TestConfirm_InvalidStatus(t *testing.T) {
	svc := newService(new(RepoMock), new(GatewayMock), new(InvalidatorMock))
	err := svc.Confirm(context.Background(), testPaymentID, "tx-1", "pending")
	assert.Error(t, err)
}

func TestConfirm_FirstCompletedInvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	access := new(InvalidatorMock)

	repo.On("ConfirmPayment", mock.Anything, testPaymentID, "tx-1", models.PaymentCompleted, mock.Anything).
		Return(true, nil).Once()
	repo.On("GetPayment", mock.Anything, testPaymentID).
		Return(&models.Payment{ID: testPaymentID, UserUID: testUID, Status: models.PaymentCompleted}, nil).Once()
	access.On("Invalidate", testUID).Once()

	svc := newService(repo, new(GatewayMock), access)
	err := svc.Confirm(context.Background(), testPaymentID, "tx-1", models.PaymentCompleted)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	access.AssertExpectations(t)
}

func TestConfirm_DuplicateIsNoOp(t *testing.T) {
	repo := new(RepoMock)
	access := new(InvalidatorMock)

	repo.On("ConfirmPayment", mock.Anything, testPaymentID, "tx-2", models.PaymentCompleted, mock.Anything).
		Return(false, nil).Once()

	svc := newService(repo, new(GatewayMock), access)
	err := svc.Confirm(context.Background(), testPaymentID, "tx-2", models.PaymentCompleted)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetPayment")
	access.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestPollUntilResolved_AlreadyResolved(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetPayment", mock.Anything, testPaymentID).
		Return(&models.Payment{ID: testPaymentID, Status: models.PaymentCompleted}, nil).Once()

	svc := newService(repo, new(GatewayMock), new(InvalidatorMock))
	result, err := svc.PollUntilResolved(context.Background(), testPaymentID, 10*time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, result.Status)
	assert.False(t, result.TimedOut)
}

func TestPollUntilResolved_GatewayResolves(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)
	access := new(InvalidatorMock)

	repo.On("GetPayment", mock.Anything, testPaymentID).
		Return(&models.Payment{ID: testPaymentID, UserUID: testUID, Status: models.PaymentPending}, nil)
	gw.On("GetPayment", testPaymentID).
		Return(&paymentprovider.PaymentInfo{
			ID:            testPaymentID,
			Status:        paymentprovider.StatusSucceeded,
			TransactionID: "tx-3",
		}, nil).Once()
	repo.On("ConfirmPayment", mock.Anything, testPaymentID, "tx-3", models.PaymentCompleted, mock.Anything).
		Return(true, nil).Once()
	access.On("Invalidate", testUID).Once()

	svc := newService(repo, gw, access)
	result, err := svc.PollUntilResolved(context.Background(), testPaymentID, 10*time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, result.Status)
	assert.False(t, result.TimedOut)
}

func TestPollUntilResolved_Timeout(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)

	repo.On("GetPayment", mock.Anything, testPaymentID).
		Return(&models.Payment{ID: testPaymentID, Status: models.PaymentPending}, nil)
	gw.On("GetPayment", testPaymentID).
		Return(&paymentprovider.PaymentInfo{ID: testPaymentID, Status: paymentprovider.StatusPending}, nil)

	svc := newService(repo, gw, new(InvalidatorMock))
	result, err := svc.PollUntilResolved(context.Background(), testPaymentID, 10*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, models.PaymentPending, result.Status)
}

func TestPollUntilResolved_ContextCancel(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)

	repo.On("GetPayment", mock.Anything, testPaymentID).
		Return(&models.Payment{ID: testPaymentID, Status: models.PaymentPending}, nil)
	gw.On("GetPayment", testPaymentID).
		Return(&paymentprovider.PaymentInfo{ID: testPaymentID, Status: paymentprovider.StatusPending}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	svc := newService(repo, gw, new(InvalidatorMock))
	_, err := svc.PollUntilResolved(ctx, testPaymentID, 10*time.Millisecond, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100.00", formatAmount(10000))
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "270.50", formatAmount(27050))
}

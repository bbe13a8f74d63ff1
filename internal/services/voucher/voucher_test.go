package voucher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RedeemVoucher(ctx context.Context, code, userUID string, now time.Time) (*models.VoucherGrant, error) {
	args := m.Called(ctx, code, userUID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoucherGrant), args.Error(1)
}
func (m *RepoMock) GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}
func (m *RepoMock) FindRedemption(ctx context.Context, voucherID int, userUID string) (bool, error) {
	args := m.Called(ctx, voucherID, userUID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) CreateVoucher(ctx context.Context, v models.Voucher) (int, error) {
	args := m.Called(ctx, v)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveVoucher(ctx context.Context, code string) (int, error) {
	args := m.Called(ctx, code)
	return args.Int(0), args.Error(1)
}

type InvalidatorMock struct{ mock.Mock }

func (m *InvalidatorMock) Invalidate(userUID string) {
	m.Called(userUID)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const testUID = "f8a1f3ea-2f6b-4f55-9c7d-222222222222"

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "PROMO50", NormalizeCode("  promo50 "))
	assert.Equal(t, "PROMO50", NormalizeCode("PROMO50"))
}

func TestRedeem_Success(t *testing.T) {
	repo := new(RepoMock)
	access := new(InvalidatorMock)

	grant := &models.VoucherGrant{PlanType: models.PlanMonthly, DurationMonths: 1}
	repo.On("RedeemVoucher", mock.Anything, "PROMO50", testUID, mock.Anything).
		Return(grant, nil).Once()
	access.On("Invalidate", testUID).Once()

	svc := New(newNoopLogger(), repo, access)
	got, err := svc.Redeem(context.Background(), "  promo50 ", testUID)

	assert.NoError(t, err)
	assert.Equal(t, grant, got)
	repo.AssertExpectations(t)
	access.AssertExpectations(t)
}

func TestRedeem_FailureDoesNotInvalidate(t *testing.T) {
	repo := new(RepoMock)
	access := new(InvalidatorMock)

	repo.On("RedeemVoucher", mock.Anything, "GONE", testUID, mock.Anything).
		Return(nil, models.ErrVoucherExhausted).Once()

	svc := New(newNoopLogger(), repo, access)
	_, err := svc.Redeem(context.Background(), "gone", testUID)

	assert.ErrorIs(t, err, models.ErrVoucherExhausted)
	access.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestValidate(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantValid  bool
		wantReason string
	}{
		{
			name: "unknown code",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(nil, models.ErrVoucherNotFound).Once()
			},
			wantReason: "not_found",
		},
		{
			name: "inactive code",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(&models.Voucher{ID: 1, Status: models.VoucherInactive, MaxUses: 5}, nil).Once()
			},
			wantReason: "inactive",
		},
		{
			name: "expired code",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(&models.Voucher{ID: 1, Status: models.VoucherActive, MaxUses: 5, ExpiresAt: &past}, nil).Once()
			},
			wantReason: "expired",
		},
		{
			name: "exhausted code",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(&models.Voucher{ID: 1, Status: models.VoucherActive, MaxUses: 5, CurrentUses: 5}, nil).Once()
			},
			wantReason: "exhausted",
		},
		{
			name: "already redeemed by user",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(&models.Voucher{ID: 1, Status: models.VoucherActive, MaxUses: 5}, nil).Once()
				r.On("FindRedemption", mock.Anything, 1, testUID).Return(true, nil).Once()
			},
			wantReason: "already_redeemed",
		},
		{
			name: "valid code",
			setupMocks: func(r *RepoMock) {
				r.On("GetVoucherByCode", mock.Anything, "X").
					Return(&models.Voucher{ID: 1, Status: models.VoucherActive, MaxUses: 5, CurrentUses: 4}, nil).Once()
				r.On("FindRedemption", mock.Anything, 1, testUID).Return(false, nil).Once()
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			svc := New(newNoopLogger(), repo, new(InvalidatorMock))
			check, err := svc.Validate(context.Background(), "x", testUID)

			assert.NoError(t, err)
			assert.Equal(t, tt.wantValid, check.Valid)
			assert.Equal(t, tt.wantReason, check.Reason)
			repo.AssertExpectations(t)
		})
	}
}

func TestValidate_InfraErrorPropagates(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetVoucherByCode", mock.Anything, "X").
		Return(nil, errors.New("db down")).Once()

	svc := New(newNoopLogger(), repo, new(InvalidatorMock))
	_, err := svc.Validate(context.Background(), "x", testUID)

	assert.Error(t, err)
}

func TestCreate_NormalizesCodeAndDefaultsStatus(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CreateVoucher", mock.Anything, mock.MatchedBy(func(v models.Voucher) bool {
		return v.Code == "NEWCODE" && v.Status == models.VoucherActive
	})).Return(7, nil).Once()

	svc := New(newNoopLogger(), repo, new(InvalidatorMock))
	id, err := svc.Create(context.Background(), models.Voucher{Code: " newcode ", MaxUses: 3})

	assert.NoError(t, err)
	assert.Equal(t, 7, id)
	repo.AssertExpectations(t)
}

func TestRemove_NotFound(t *testing.T) {
	repo := new(RepoMock)
	repo.On("RemoveVoucher", mock.Anything, "MISSING").Return(0, nil).Once()

	svc := New(newNoopLogger(), repo, new(InvalidatorMock))
	err := svc.Remove(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrVoucherNotFound)
}

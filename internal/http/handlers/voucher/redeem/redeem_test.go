package redeem_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/voucher/redeem"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Redeem(ctx context.Context, code, userUID string) (*models.VoucherGrant, error) {
	args := m.Called(ctx, code, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoucherGrant), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const testUID = "f8a1f3ea-2f6b-4f55-9c7d-555555555555"

func requestWithUser(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/vouchers/redeem", bytes.NewBufferString(body))
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, testUID)
	return req.WithContext(ctx)
}

func TestRedeemHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(s *ServiceMock)
		wantStatusCode int
		wantInBody     string
	}{
		{
			name:           "invalid json",
			body:           "{broken",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantInBody:     "invalid request body",
		},
		{
			name:           "empty code",
			body:           `{"code":""}`,
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantInBody:     "Code",
		},
		{
			name: "exhausted voucher",
			body: `{"code":"promo50"}`,
			setupMock: func(s *ServiceMock) {
				s.On("Redeem", mock.Anything, "promo50", testUID).
					Return(nil, models.ErrVoucherExhausted).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantInBody:     "voucher is exhausted",
		},
		{
			name: "already redeemed",
			body: `{"code":"promo50"}`,
			setupMock: func(s *ServiceMock) {
				s.On("Redeem", mock.Anything, "promo50", testUID).
					Return(nil, models.ErrVoucherAlreadyRedeemed).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantInBody:     "voucher already redeemed",
		},
		{
			name: "success",
			body: `{"code":"promo50"}`,
			setupMock: func(s *ServiceMock) {
				s.On("Redeem", mock.Anything, "promo50", testUID).
					Return(&models.VoucherGrant{PlanType: models.PlanMonthly, DurationMonths: 1}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantInBody:     "monthly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			handler := redeem.New(newNoopLogger(), svc)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, requestWithUser(tt.body))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantInBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestRedeemHandler_NoUserInContext(t *testing.T) {
	svc := new(ServiceMock)
	handler := redeem.New(newNoopLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/vouchers/redeem",
		bytes.NewBufferString(`{"code":"promo50"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)
}

package paymentwebhook_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

const webhookSecret = "test-secret"

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Confirm(ctx context.Context, paymentID, transactionID, status string) error {
	return m.Called(ctx, paymentID, transactionID, status).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	succeededBody := []byte(`{"event":"payment.succeeded","object":{"id":"pay-1","status":"succeeded","transaction_id":"tx-1"}}`)
	canceledBody := []byte(`{"event":"payment.canceled","object":{"id":"pay-2","status":"canceled","transaction_id":"tx-2"}}`)
	refundBody := []byte(`{"event":"payment.refunded","object":{"id":"pay-3"}}`)

	tests := []struct {
		name           string
		body           []byte
		signature      string
		setupMock      func(s *ServiceMock)
		wantStatusCode int
	}{
		{
			name:           "missing signature",
			body:           succeededBody,
			signature:      "",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid signature",
			body:           succeededBody,
			signature:      "bm90LWEtc2lnbmF0dXJl",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:      "succeeded event confirms completed",
			body:      succeededBody,
			signature: sign(succeededBody),
			setupMock: func(s *ServiceMock) {
				s.On("Confirm", mock.Anything, "pay-1", "tx-1", models.PaymentCompleted).
					Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:      "canceled event confirms failed",
			body:      canceledBody,
			signature: sign(canceledBody),
			setupMock: func(s *ServiceMock) {
				s.On("Confirm", mock.Anything, "pay-2", "tx-2", models.PaymentFailed).
					Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown event ignored",
			body:           refundBody,
			signature:      sign(refundBody),
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			handler := paymentwebhook.New(newNoopLogger(), svc, webhookSecret)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBuffer(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Api-Signature", tt.signature)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
			if tt.wantStatusCode == http.StatusUnauthorized {
				svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

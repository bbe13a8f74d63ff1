package middlewarectx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
)

type AccessServiceMock struct {
	mock.Mock
}

func (m *AccessServiceMock) HasActiveSubscription(ctx context.Context, userUID string, forceRefresh bool) (bool, error) {
	args := m.Called(ctx, userUID, forceRefresh)
	return args.Bool(0), args.Error(1)
}

func TestSubscriptionAccessMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		role           string
		setupMock      func(s *AccessServiceMock)
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing user uid",
			userUID:        "",
			setupMock:      func(_ *AccessServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:    "active subscription passes",
			userUID: "uid-1",
			role:    "spectator",
			setupMock: func(s *AccessServiceMock) {
				s.On("HasActiveSubscription", mock.Anything, "uid-1", false).
					Return(true, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:    "inactive subscription rejected",
			userUID: "uid-1",
			role:    "spectator",
			setupMock: func(s *AccessServiceMock) {
				s.On("HasActiveSubscription", mock.Anything, "uid-1", false).
					Return(false, nil).Once()
			},
			wantStatusCode: http.StatusForbidden,
			wantCalled:     false,
		},
		{
			name:    "infra error is 500",
			userUID: "uid-1",
			role:    "spectator",
			setupMock: func(s *AccessServiceMock) {
				s.On("HasActiveSubscription", mock.Anything, "uid-1", false).
					Return(false, errors.New("redis down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCalled:     false,
		},
		{
			// Администратор проходит без обращения к сервису доступа.
			name:           "admin bypasses check",
			userUID:        "uid-admin",
			role:           "admin",
			setupMock:      func(_ *AccessServiceMock) {},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AccessServiceMock)
			tt.setupMock(svc)

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			guard := middlewarectx.SubscriptionAccessMiddleware(newNoopLogger(), svc)(next)

			req := httptest.NewRequest(http.MethodGet, "/content", nil)
			ctx := req.Context()
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			if tt.role != "" {
				ctx = context.WithValue(ctx, middlewarectx.Role, tt.role)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			svc.AssertExpectations(t)
		})
	}
}

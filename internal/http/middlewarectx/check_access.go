package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// AccessService проверяет право пользователя на платный контент.
type AccessService interface {
	HasActiveSubscription(ctx context.Context, userUID string, forceRefresh bool) (bool, error)
}

// SubscriptionAccessMiddleware закрывает платный контент от пользователей
// без активной подписки. Решение берется из кэша сервиса доступа.
// Администраторы проходят без проверки подписки.
func SubscriptionAccessMiddleware(log *slog.Logger, access AccessService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			if role, ok := r.Context().Value(Role).(string); ok && role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			active, err := access.HasActiveSubscription(r.Context(), userUID, false)
			if err != nil {
				log.Error("failed to check subscription", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !active {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription required, access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

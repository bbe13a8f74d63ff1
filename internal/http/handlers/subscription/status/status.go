// Package status реализует HTTP-обработчик текущего состояния подписки.
//
// Состояние вычисляется лениво на момент запроса: запись с датой
// окончания в прошлом отдается как expired, даже если фоновые задачи
// еще не обновили строку в базе.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/services/entitlement"
)

// Service описывает интерфейс чтения состояния подписки.
type Service interface {
	State(ctx context.Context, userUID string) (entitlement.State, error)
	HasActiveSubscription(ctx context.Context, userUID string, forceRefresh bool) (bool, error)
}

// Handler обрабатывает HTTP-запросы состояния подписки.
type Handler struct {
	log          *slog.Logger
	entitlements Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, entitlements Service) *Handler {
	return &Handler{log: log, entitlements: entitlements}
}

// ServeHTTP godoc
// @Summary Состояние подписки
// @Description Возвращает текущий статус подписки и количество оставшихся дней.
// @Tags Subscription
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response "Состояние подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не определен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscription/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	state, err := h.entitlements.State(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get subscription state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":         state.Status,
		"days_remaining": state.DaysRemaining,
		"has_access":     state.IsActive(),
	}))
}

// Package content реализует пробную конечную точку платного контента.
// Сам контент живет во внешних сервисах: они ходят на этот маршрут через
// тот же middleware подписки, здесь возвращается только факт допуска.
package content

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Проверка допуска к платному контенту
// @Security BearerAuth
// @Tags content
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"access":   "granted",
		"user_uid": userUID,
	}))
}

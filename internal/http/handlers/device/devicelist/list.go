// Package devicelist реализует HTTP-обработчик списка активных устройств.
package devicelist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Service описывает интерфейс списка устройств.
type Service interface {
	ListActive(ctx context.Context, userUID string) ([]*models.Device, error)
}

// Handler обрабатывает HTTP-запросы списка устройств.
type Handler struct {
	log     *slog.Logger
	devices Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, devices Service) *Handler {
	return &Handler{log: log, devices: devices}
}

// ServeHTTP godoc
// @Summary Список активных устройств
// @Description Возвращает активные устройства текущего пользователя.
// @Tags Devices
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response "Список устройств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не определен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.list"

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

	devices, err := h.devices.ListActive(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"devices": devices,
		"count":   len(devices),
	}))
}

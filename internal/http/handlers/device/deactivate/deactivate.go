// Package deactivate реализует HTTP-обработчик освобождения слота устройства.
// Операция идемпотентна: повторная деактивация уже неактивного устройства
// завершается успешно.
package deactivate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
)

// Service описывает интерфейс деактивации устройства.
type Service interface {
	Deactivate(ctx context.Context, userUID, deviceID string) error
}

// Handler обрабатывает HTTP-запросы деактивации устройств.
type Handler struct {
	log     *slog.Logger
	devices Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, devices Service) *Handler {
	return &Handler{log: log, devices: devices}
}

// ServeHTTP godoc
// @Summary Деактивация устройства
// @Description Освобождает слот устройства текущего пользователя.
// @Tags Devices
// @Security BearerAuth
// @Produce  json
// @Param device_id path string true "Идентификатор устройства"
// @Success 200 {object} response.Response "Устройство деактивировано"
// @Failure 401 {object} response.ErrorResponse "Пользователь не определен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /devices/{device_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.deactivate"

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

	deviceID := chi.URLParam(r, "device_id")
	if deviceID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("device id is required"))
		return
	}

	if err := h.devices.Deactivate(r.Context(), userUID, deviceID); err != nil {
		log.Error("failed to deactivate device", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("device deactivated", slog.String("device_id", deviceID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deactivated": true}))
}

// Package remove реализует административный HTTP-обработчик удаления промокода.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Service описывает интерфейс бизнес-логики удаления промокода.
type Service interface {
	Remove(ctx context.Context, code string) error
}

// Handler обрабатывает HTTP-запросы удаления промокодов.
type Handler struct {
	log      *slog.Logger
	vouchers Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, vouchers Service) *Handler {
	return &Handler{log: log, vouchers: vouchers}
}

// ServeHTTP godoc
// @Summary Удаление промокода
// @Description Удаляет промокод по коду. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param code path string true "Код промокода"
// @Success 200 {object} response.Response "Промокод удален"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/vouchers/{code} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := chi.URLParam(r, "code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("voucher code is required"))
		return
	}

	if err := h.vouchers.Remove(r.Context(), code); err != nil {
		if errors.Is(err, models.ErrVoucherNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("voucher not found"))
			return
		}
		log.Error("failed to remove voucher", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove voucher"))
		return
	}

	log.Info("voucher removed")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"removed": true}))
}

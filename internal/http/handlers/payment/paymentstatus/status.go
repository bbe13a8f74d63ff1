// Package paymentstatus реализует HTTP-обработчик ожидания разрешения платежа.
//
// Обработчик держит запрос открытым, пока платеж не перейдет в итоговый
// статус, не истечет таймаут ожидания или клиент не разорвет соединение.
// Таймаут не является ошибкой: клиент может повторить запрос позже.
package paymentstatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Service описывает интерфейс ожидания разрешения платежа.
type Service interface {
	Status(ctx context.Context, paymentID string) (*models.Payment, error)
	PollUntilResolved(ctx context.Context, paymentID string, interval, timeout time.Duration) (*models.PollResult, error)
}

// Handler обрабатывает HTTP-запросы статуса платежа.
type Handler struct {
	log      *slog.Logger
	payments Service
	interval time.Duration
	timeout  time.Duration
}

// New создает новый экземпляр Handler с настройками опроса.
func New(log *slog.Logger, payments Service, interval, timeout time.Duration) *Handler {
	return &Handler{
		log:      log,
		payments: payments,
		interval: interval,
		timeout:  timeout,
	}
}

// ServeHTTP godoc
// @Summary Ожидание разрешения платежа
// @Description Ждет перехода платежа в итоговый статус. Параметр wait=false возвращает текущий статус немедленно.
// @Tags Payments
// @Security BearerAuth
// @Produce  json
// @Param id path string true "Идентификатор платежа"
// @Param wait query bool false "Ждать разрешения платежа"
// @Success 200 {object} response.Response "Статус платежа"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"

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

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("payment id is required"))
		return
	}

	// Платеж принадлежит другому пользователю — не раскрываем его наличие.
	p, err := h.payments.Status(r.Context(), paymentID)
	if err != nil || p.UserUID != userUID {
		if err != nil && !errors.Is(err, models.ErrPaymentNotFound) {
			log.Error("failed to load payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("payment not found"))
		return
	}

	if r.URL.Query().Get("wait") == "false" {
		render.JSON(w, r, response.StatusOKWithData(models.PollResult{Status: p.Status}))
		return
	}

	// Долгий опрос живет дольше общего WriteTimeout сервера: без сдвига
	// дедлайна net/http закроет соединение раньше, чем придет ответ.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(h.timeout + 5*time.Second)); err != nil {
		log.Warn("failed to extend write deadline", sl.Err(err))
	}

	result, err := h.payments.PollUntilResolved(r.Context(), paymentID, h.interval, h.timeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("client disconnected while polling", slog.String("payment_id", paymentID))
			return
		}
		log.Error("failed to poll payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}

// Package redeem реализует HTTP-обработчик погашения промокода.
//
// Код нормализуется перед обработкой, все бизнес-проверки выполняются
// атомарно на стороне сервиса. Ожидаемые отказы (неизвестный, неактивный,
// истекший, исчерпанный или уже погашенный код) отображаются в HTTP 409
// с машиночитаемой причиной.
package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Request — структура входных данных для погашения промокода.
type Request struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// Service описывает интерфейс бизнес-логики погашения.
type Service interface {
	Redeem(ctx context.Context, code, userUID string) (*models.VoucherGrant, error)
}

// Handler обрабатывает HTTP-запросы погашения промокодов.
type Handler struct {
	log      *slog.Logger
	vouchers Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, vouchers Service) *Handler {
	return &Handler{
		log:      log,
		vouchers: vouchers,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Погашение промокода
// @Description Погашает промокод и продлевает премиум-доступ пользователя.
// @Tags Vouchers
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Код промокода"
// @Success 200 {object} response.Response "Промокод погашен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Код недоступен для погашения"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /vouchers/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.redeem"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	grant, err := h.vouchers.Redeem(r.Context(), req.Code, userUID)
	if err != nil {
		if reason, ok := redeemFailureReason(err); ok {
			log.Info("voucher redemption rejected", slog.String("reason", reason))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(reason))
			return
		}
		log.Error("voucher redemption failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("voucher redeemed", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(grant))
}

// redeemFailureReason переводит ожидаемые бизнес-отказы в машиночитаемые причины.
func redeemFailureReason(err error) (string, bool) {
	switch {
	case errors.Is(err, models.ErrVoucherNotFound):
		return "voucher not found", true
	case errors.Is(err, models.ErrVoucherInactive):
		return "voucher is inactive", true
	case errors.Is(err, models.ErrVoucherExpired):
		return "voucher is expired", true
	case errors.Is(err, models.ErrVoucherExhausted):
		return "voucher is exhausted", true
	case errors.Is(err, models.ErrVoucherAlreadyRedeemed):
		return "voucher already redeemed", true
	default:
		return "", false
	}
}

// Package create реализует административный HTTP-обработчик создания промокода.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlement-engine/internal/http/response"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Request — структура входных данных для создания промокода.
type Request struct {
	Code           string     `json:"code" validate:"required,min=1,max=64"`
	DurationMonths int        `json:"duration_months" validate:"required,min=1,max=36"`
	Amount         int64      `json:"amount" validate:"min=0"`
	PlanType       string     `json:"plan_type" validate:"required,oneof=monthly quarterly yearly"`
	MaxUses        int        `json:"max_uses" validate:"required,min=1"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Service описывает интерфейс бизнес-логики создания промокода.
type Service interface {
	Create(ctx context.Context, v models.Voucher) (int, error)
}

// Handler обрабатывает HTTP-запросы создания промокодов.
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
// @Summary Создание промокода
// @Description Создает новый промокод. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры промокода"
// @Success 200 {object} response.Response "Промокод создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/vouchers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	id, err := h.vouchers.Create(r.Context(), models.Voucher{
		Code:           req.Code,
		DurationMonths: req.DurationMonths,
		Amount:         req.Amount,
		PlanType:       req.PlanType,
		MaxUses:        req.MaxUses,
		Status:         models.VoucherActive,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		log.Error("failed to create voucher", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create voucher"))
		return
	}

	log.Info("voucher created", slog.Int("voucher_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"voucher_id": id}))
}

// Package validate реализует HTTP-обработчик предварительной проверки
// промокода. Проверка не имеет побочных эффектов и не резервирует
// использование кода.
package validate

import (
	"context"
	"encoding/json"
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

// Request — структура входных данных для проверки промокода.
type Request struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// Service описывает интерфейс бизнес-логики проверки кода.
type Service interface {
	Validate(ctx context.Context, code, userUID string) (*models.VoucherCheck, error)
}

// Handler обрабатывает HTTP-запросы проверки промокодов.
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
// @Summary Проверка промокода
// @Description Проверяет код без погашения: активность, срок, остаток использований.
// @Tags Vouchers
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Код промокода"
// @Success 200 {object} response.Response "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /vouchers/validate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.validate"

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

	check, err := h.vouchers.Validate(r.Context(), req.Code, userUID)
	if err != nil {
		log.Error("voucher check failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(check))
}

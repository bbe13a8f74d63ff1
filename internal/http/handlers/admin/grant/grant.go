// Package grant реализует административный HTTP-обработчик выдачи
// премиум-доступа пользователю без оплаты.
package grant

import (
	"context"
	"encoding/json"
	"errors"
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

// Request — структура входных данных для выдачи премиум-доступа.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Months  int    `json:"months" validate:"required,min=1,max=36"`
}

// Service описывает интерфейс выдачи премиум-доступа.
type Service interface {
	GrantPremium(ctx context.Context, userUID string, months int) (time.Time, error)
}

// Handler обрабатывает административные запросы выдачи доступа.
type Handler struct {
	log          *slog.Logger
	entitlements Service
	validate     *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, entitlements Service) *Handler {
	return &Handler{
		log:          log,
		entitlements: entitlements,
		validate:     validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдача премиум-доступа
// @Description Продлевает премиум-доступ пользователя на заданное число месяцев. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь и длительность"
// @Success 200 {object} response.Response "Доступ выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grant"

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

	expiry, err := h.entitlements.GrantPremium(r.Context(), req.UserUID, req.Months)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to grant premium", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("premium granted", slog.String("user_uid", req.UserUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":            req.UserUID,
		"subscription_expiry": expiry,
	}))
}

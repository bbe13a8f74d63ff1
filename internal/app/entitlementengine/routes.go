// Package entitlementengine предоставляет маршруты основного приложения.
package entitlementengine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/entitlement-engine/internal/config"
	admingrant "github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/admin/grant"
	adminrevoke "github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/admin/revoke"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/content"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/device/deactivate"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/device/devicelist"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/health"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/payment/paymentstatus"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/subscription/status"
	vouchercreate "github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/voucher/create"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/voucher/redeem"
	voucherremove "github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/voucher/remove"
	vouchervalidate "github.com/magabrotheeeer/entitlement-engine/internal/http/handlers/voucher/validate"
	"github.com/magabrotheeeer/entitlement-engine/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/entitlement-engine/internal/services/auth"
	deviceservice "github.com/magabrotheeeer/entitlement-engine/internal/services/device"
	entitlementservice "github.com/magabrotheeeer/entitlement-engine/internal/services/entitlement"
	paymentservice "github.com/magabrotheeeer/entitlement-engine/internal/services/payment"
	voucherservice "github.com/magabrotheeeer/entitlement-engine/internal/services/voucher"
)

// Services собирает сервисы, необходимые маршрутам приложения.
type Services struct {
	Auth         *authservice.Service
	Entitlements *entitlementservice.Service
	Vouchers     *voucherservice.Service
	Payments     *paymentservice.Service
	Devices      *deviceservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	tokens middlewarectx.TokenParser, svc Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/subscription/status", status.New(logger, svc.Entitlements).ServeHTTP)
			r.Post("/vouchers/redeem", redeem.New(logger, svc.Vouchers).ServeHTTP)
			r.Post("/vouchers/validate", vouchervalidate.New(logger, svc.Vouchers).ServeHTTP)
			r.Post("/payments", paymentcreate.New(logger, svc.Payments).ServeHTTP)
			r.Get("/payments/{id}/status", paymentstatus.New(logger, svc.Payments,
				cfg.PaymentPollInterval, cfg.PaymentPollTimeout).ServeHTTP)
			r.Get("/devices", devicelist.New(logger, svc.Devices).ServeHTTP)
			r.Delete("/devices/{device_id}", deactivate.New(logger, svc.Devices).ServeHTTP)

			// Платный контент закрыт проверкой подписки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionAccessMiddleware(logger, svc.Entitlements))
				r.Get("/content", content.New(logger).ServeHTTP)
			})

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Post("/admin/vouchers", vouchercreate.New(logger, svc.Vouchers).ServeHTTP)
				r.Delete("/admin/vouchers/{code}", voucherremove.New(logger, svc.Vouchers).ServeHTTP)
				r.Post("/admin/grant", admingrant.New(logger, svc.Entitlements).ServeHTTP)
				r.Post("/admin/revoke", adminrevoke.New(logger, svc.Entitlements).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись проверяется в обработчике)
		r.Post("/payments/webhook", paymentwebhook.New(logger, svc.Payments, cfg.WebhookSecret).ServeHTTP)

		r.Get("/health", health.New(logger).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

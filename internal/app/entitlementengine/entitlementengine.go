// Package entitlementengine собирает основное приложение: хранилище,
// кэш, брокер уведомлений, клиент платежного шлюза, сервисы и HTTP-сервер.
package entitlementengine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlement-engine/internal/cache"
	"github.com/magabrotheeeer/entitlement-engine/internal/config"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/jwt"
	"github.com/magabrotheeeer/entitlement-engine/internal/migrations"
	"github.com/magabrotheeeer/entitlement-engine/internal/notifier"
	"github.com/magabrotheeeer/entitlement-engine/internal/paymentprovider"
	"github.com/magabrotheeeer/entitlement-engine/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/entitlement-engine/internal/services/auth"
	deviceservice "github.com/magabrotheeeer/entitlement-engine/internal/services/device"
	entitlementservice "github.com/magabrotheeeer/entitlement-engine/internal/services/entitlement"
	paymentservice "github.com/magabrotheeeer/entitlement-engine/internal/services/payment"
	voucherservice "github.com/magabrotheeeer/entitlement-engine/internal/services/voucher"
	"github.com/magabrotheeeer/entitlement-engine/internal/storage/repository"
)

// App представляет основное приложение движка прав доступа.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает приложение и связывает все зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, cfg.ConnectRetries, cfg.ConnectRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.GatewayShopID, cfg.GatewaySecretKey, cfg.GatewayAPIURL)
	notify := notifier.New(ch)

	entitlementService := entitlementservice.New(logger, db, cacheRedis, notify, cfg.AccessCacheTTL)
	voucherService := voucherservice.New(logger, db, entitlementService)
	paymentService := paymentservice.New(logger, db, providerClient, entitlementService, cfg.Plans, cfg.Gateway)
	deviceService := deviceservice.New(logger, db, cfg.DeviceLimit)
	authService := authservice.New(logger, db, deviceService, entitlementService, jwtMaker, cfg.TrialDays)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, Services{
		Auth:         authService,
		Entitlements: entitlementService,
		Vouchers:     voucherService,
		Payments:     paymentService,
		Devices:      deviceService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}

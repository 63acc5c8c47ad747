package usersubscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/user-subscription-service/internal/cache"
	"github.com/magabrotheeeer/user-subscription-service/internal/config"
	"github.com/magabrotheeeer/user-subscription-service/internal/migrations"
	subservice "github.com/magabrotheeeer/user-subscription-service/internal/services/subscription"
	userservice "github.com/magabrotheeeer/user-subscription-service/internal/services/user"
	"github.com/magabrotheeeer/user-subscription-service/internal/storage/repository"
)

// App собирает зависимости сервиса и управляет жизненным циклом HTTP-сервера.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключается к PostgreSQL и Redis, применяет миграции и настраивает
// маршруты. Возвращает готовое к запуску приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	userService := userservice.NewUserService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, userService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или ошибки.
// При отмене контекста сервер останавливается gracefully.
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
		a.db.DB.Close()
		return err
	}
}

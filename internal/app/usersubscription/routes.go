// Package usersubscription предоставляет маршруты и сборку основного приложения.
package usersubscription

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/health"
	subcreate "github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/subscription/create"
	sublist "github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/subscription/popular"
	subremove "github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/user/create"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/user/list"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/user-subscription-service/internal/http/middlewarectx"
	subservice "github.com/magabrotheeeer/user-subscription-service/internal/services/subscription"
	userservice "github.com/magabrotheeeer/user-subscription-service/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, userService *userservice.UserService, subscriptionService *subservice.SubscriptionService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(10), 20)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		r.Post("/users", create.New(logger, userService).ServeHTTP)
		r.Get("/users", list.New(logger, userService).ServeHTTP)
		r.Get("/users/{id}", read.New(logger, userService).ServeHTTP)
		r.Put("/users/{id}", update.New(logger, userService).ServeHTTP)
		r.Delete("/users/{id}", remove.New(logger, userService).ServeHTTP)

		r.Post("/users/{id}/subscriptions", subcreate.New(logger, subscriptionService).ServeHTTP)
		r.Get("/users/{id}/subscriptions", sublist.New(logger, subscriptionService).ServeHTTP)
		r.Delete("/users/{id}/subscriptions/{subscriptionID}", subremove.New(logger, subscriptionService).ServeHTTP)

		r.Get("/subscriptions/popular", popular.New(logger, subscriptionService).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// Package usermanagement собирает HTTP-приложение: хранилище, сервисы и маршруты.
package usermanagement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/user-management/internal/config"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/admin/list"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/admin/status"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/health"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/user-management/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/user-management/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-management/internal/models"

	// Регистрация swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/user-management/docs"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, services Services, reg *prometheus.Registry) {
	metrics := middlewarectx.NewMetrics(reg)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/", health.New().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))
			r.Post("/auth/signup", signup.New(logger, services.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, services.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(logger, services.Auth, services.Accounts))

			r.Get("/users/profile", profile.New(logger, services.Accounts).ServeHTTP)
			r.Put("/users/profile", update.New(logger, services.Accounts).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/admin/users", list.New(logger, services.Accounts).ServeHTTP)
				r.Patch("/admin/users/{id}/status", status.New(logger, services.Accounts).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// NewRouter собирает HTTP-обработчик поверх готовых сервисов.
// Каждый роутер получает свой реестр метрик.
func NewRouter(logger *slog.Logger, cfg config.HTTPServer, services Services) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, services, reg)
	return router
}

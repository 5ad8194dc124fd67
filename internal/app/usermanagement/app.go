package usermanagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/user-management/internal/cache"
	"github.com/magabrotheeeer/user-management/internal/config"
	"github.com/magabrotheeeer/user-management/internal/lib/jwt"
	"github.com/magabrotheeeer/user-management/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/services/accounts"
	"github.com/magabrotheeeer/user-management/internal/services/auth"
	"github.com/magabrotheeeer/user-management/internal/storage"
	"github.com/magabrotheeeer/user-management/internal/storage/cached"
)

const shutdownTimeout = 15 * time.Second

// Services — сервисы, собранные поверх одного хранилища.
type Services struct {
	Auth     *auth.Service
	Accounts *accounts.Service
}

// NewServices собирает сервисы поверх хранилища и публикатора событий.
func NewServices(logger *slog.Logger, cfg *config.Config, repo storage.Repository, publisher auth.EventPublisher) Services {
	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, jwt.DefaultTTL)
	authService := auth.New(logger, repo, maker,
		auth.WithPublisher(publisher),
		auth.WithAdminEmails(cfg.AdminEmails),
		auth.WithBcryptCost(cfg.BcryptCost),
	)
	return Services{
		Auth:     authService,
		Accounts: accounts.New(logger, repo, authService, publisher),
	}
}

// App — HTTP-сервер со всеми зависимостями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	repo      storage.Repository
	publisher *rabbitmq.Publisher
}

// New открывает хранилище, кэш и брокер по конфигурации и готовит HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "usermanagement.New"

	repo, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		repo = cached.New(repo, cacheRedis, cfg.CacheTTL, logger)
		logger.Info("account cache enabled", slog.String("address", cfg.AddressRedis))
	}

	app := &App{logger: logger, repo: repo}

	var publisher auth.EventPublisher = auth.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher, err = rabbitmq.NewPublisher(conn, cfg.RabbitMQ.Exchange)
		if err != nil {
			_ = conn.Close()
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = app.publisher
		logger.Info("account events enabled", slog.String("exchange", cfg.RabbitMQ.Exchange))
	}

	services := NewServices(logger, cfg, repo, publisher)

	app.server = &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      NewRouter(logger, cfg.HTTPServer, services),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.repo.Close(ctx); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
}

// @title           Auth API
// @version         1.0
// @description     User registration and login issuing signed session tokens.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/authsvc/auth-api/internal/api"
	"github.com/authsvc/auth-api/internal/api/handler"
	"github.com/authsvc/auth-api/internal/core/service"
	"github.com/authsvc/auth-api/internal/infrastructure/config"
	"github.com/authsvc/auth-api/internal/infrastructure/db/redis"
	"github.com/authsvc/auth-api/internal/infrastructure/store"
	"github.com/authsvc/auth-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to defaults.
		logger.Init(logger.Options{Service: "auth-api"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-api",
	})

	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeWithTimeout(log, "store", backend.Close)
	log.Info().Str("store", backend.Name).Msg("credential store connected")

	tokens := service.NewTokenIssuer(cfg.JWTSecret)
	readiness := map[string]handler.Pinger{backend.Name: backend}

	var opts []service.Option
	if cfg.Redis.Addr != "" {
		lock, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeWithTimeout(log, "redis", func(context.Context) error { return lock.Close() })
		opts = append(opts, service.WithRegistrationLock(lock))
		readiness["redis"] = lock
		log.Info().Str("addr", cfg.Redis.Addr).Msg("registration lock enabled")
	}

	e := api.NewRouter(api.Deps{
		AuthService: service.NewAuthService(backend.Users, tokens, log, opts...),
		Tokens:      tokens,
		Readiness:   readiness,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func closeWithTimeout(log zerolog.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Warn().Err(err).Str("dependency", name).Msg("close failed")
	}
}

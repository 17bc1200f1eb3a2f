package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/guardrail-api/internal/config"
	"github.com/deppfellow/guardrail-api/internal/database"
	"github.com/deppfellow/guardrail-api/internal/handler"
	"github.com/deppfellow/guardrail-api/internal/logger"
	"github.com/deppfellow/guardrail-api/internal/repository"
	"github.com/deppfellow/guardrail-api/internal/router"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if err := run(cfg, &log, loggerService); err != nil {
		log.Error().Stack().Err(err).Msg("server exited with error")
		loggerService.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) error {
	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(migrateCtx, log, cfg)
		cancel()
		if err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewService(srv, repos)
	if err != nil {
		return errors.Wrap(err, "failed to create services")
	}
	if !services.Auth.Configured() {
		log.Warn().Msg("clerk secret key not set, every request is anonymous")
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var startErr error
	select {
	case startErr = <-serveErr:
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	if startErr != nil {
		return errors.Wrap(startErr, "failed to start server")
	}

	log.Info().Msg("server exited properly")
	return nil
}

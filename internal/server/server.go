// Package server owns the process-wide dependencies and the HTTP server
// lifecycle: config, loggers, PostgreSQL, Redis, background jobs, metrics and
// the root dependency container request scopes are created from.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/guardrail-api/internal/config"
	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/deppfellow/guardrail-api/internal/database"
	"github.com/deppfellow/guardrail-api/internal/lib/job"
	"github.com/deppfellow/guardrail-api/internal/metrics"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/guardrail-api/internal/logger"
)

type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	DB            *database.Database
	Redis         *redis.Client
	Job           *job.JobService
	Metrics       *metrics.Metrics

	// Container is the root every request scope is created from.
	Container *container.Container

	httpServer *http.Server
}

// New connects to PostgreSQL and Redis and starts the job workers.
//
// The database is required. A Redis outage at boot is logged, not fatal: the
// server comes up with Job == nil, so no workers run and todo notifications
// are skipped until the process is restarted with Redis reachable.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	jobService := startJobs(logger, cfg, redisClient)

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(cfg.Observability.MetricsNamespace())
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
		Metrics:       m,
		Container:     container.New(),
	}, nil
}

func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then closes jobs, Redis and the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "failed to shutdown HTTP server")
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database connection")
		}
	}

	return nil
}

// startJobs returns nil when Redis does not answer or the asynq server fails
// to start. asynq pings Redis itself on Start, so the ping here only decides
// whether it is worth trying.
func startJobs(logger *zerolog.Logger, cfg *config.Config, redisClient *redis.Client) *job.JobService {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to Redis, continuing without background jobs")
		return nil
	}

	jobService := job.NewJobService(logger, cfg)
	if err := jobService.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to start job server, continuing without background jobs")
		jobService.Close()
		return nil
	}

	return jobService
}

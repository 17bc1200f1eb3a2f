package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/guardrail-api/internal/middleware"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck probes one dependency. A failing Required check turns the
// whole endpoint unhealthy (503); an optional one is only reported.
type HealthCheck struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

type HealthHandler struct {
	Handler
	checks []HealthCheck
}

// NewHealthHandler checks the database (required) and Redis (optional).
func NewHealthHandler(s *server.Server) *HealthHandler {
	var checks []HealthCheck
	if s.DB != nil {
		checks = append(checks, HealthCheck{Name: "database", Required: true, Ping: s.DB.Ping})
	}
	if s.Redis != nil {
		checks = append(checks, HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return s.Redis.Ping(ctx).Err() },
		})
	}
	return NewHealthHandlerWithChecks(s, checks...)
}

func NewHealthHandlerWithChecks(s *server.Server, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(s), checks: checks}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth answers 200 when every required check passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]checkResult, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		checkStart := time.Now()
		err := check.Ping(ctx)
		cancel()
		took := time.Since(checkStart)

		if err == nil {
			response.Checks[check.Name] = checkResult{Status: "healthy", ResponseTime: took.String()}
			logger.Debug().Str("check", check.Name).Dur("response_time", took).Msg("health check passed")
			continue
		}

		response.Checks[check.Name] = checkResult{Status: "unhealthy", ResponseTime: took.String(), Error: err.Error()}
		if check.Required {
			response.Status = "unhealthy"
		}

		logger.Error().Err(err).Str("check", check.Name).Dur("response_time", took).Msg("health check failed")
		h.recordHealthEvent(check.Name, err, took)
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
	}

	if err := c.JSON(status, response); err != nil {
		return errors.Wrap(err, "failed to write health response")
	}
	return nil
}

func (h *HealthHandler) recordHealthEvent(check string, err error, took time.Duration) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"response_time_ms": took.Milliseconds(),
		"error_message":    err.Error(),
	})
}

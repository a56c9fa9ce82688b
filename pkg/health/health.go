package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
	"github.com/saaga0h/paintmix-platform/pkg/postgres"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// pingTimeout bounds the dependency checks of the detailed handler
const pingTimeout = 2 * time.Second

// Checker provides health check functionality for agents
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	mixing   func() int
	logger   *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies.
// pgClient may be nil when result history is disabled.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: pgClient,
		logger:   logger,
	}
}

// WithMixingCount makes the detailed report include the number of running
// mixes
func (h *Checker) WithMixingCount(fn func() int) *Checker {
	h.mixing = fn
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
	Mixing    *int      `json:"mixing,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres,omitempty"`
}

// HandlerFunc returns an HTTP handler function for health checks.
// Returns 200 if process is alive without checking dependencies.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}
		h.write(w, http.StatusOK, response)
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		services := &Services{
			Redis: "disconnected",
			MQTT:  "disconnected",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}

		if h.redis != nil {
			if err := h.redis.Ping(ctx); err == nil {
				services.Redis = "connected"
			} else {
				h.logger.Warn("Redis health check failed", "error", err)
			}
		}

		if h.postgres != nil {
			services.Postgres = "disconnected"
			status, err := h.postgres.HealthCheck(ctx)
			if err == nil && status.Connected {
				services.Postgres = "connected"
			} else if status != nil && status.Error != "" {
				h.logger.Warn("Postgres health check failed", "error", status.Error)
			}
		}

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis != "connected" || services.MQTT != "connected" ||
			(h.postgres != nil && services.Postgres != "connected") {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}
		if h.mixing != nil {
			n := h.mixing()
			response.Mixing = &n
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}

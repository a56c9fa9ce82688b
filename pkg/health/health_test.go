package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt/mqtttest"
	"github.com/saaga0h/paintmix-platform/pkg/redis/redistest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, resp
}

func TestHandlerFunc(t *testing.T) {
	checker := NewChecker(nil, nil, nil, testLogger())

	code, resp := serve(t, checker.HandlerFunc())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Services)
}

func TestDetailedHandlerFunc(t *testing.T) {
	mqttClient := mqtttest.New()
	require.NoError(t, mqttClient.Connect(context.Background()))
	redisClient := redistest.New()

	t.Run("healthy", func(t *testing.T) {
		checker := NewChecker(mqttClient, redisClient, nil, testLogger()).
			WithMixingCount(func() int { return 2 })

		code, resp := serve(t, checker.DetailedHandlerFunc())
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		require.NotNil(t, resp.Services)
		assert.Equal(t, "connected", resp.Services.MQTT)
		assert.Equal(t, "connected", resp.Services.Redis)
		assert.Empty(t, resp.Services.Postgres)
		require.NotNil(t, resp.Mixing)
		assert.Equal(t, 2, *resp.Mixing)
	})

	t.Run("redis down", func(t *testing.T) {
		redisClient.PingErr = errors.New("connection refused")
		defer func() { redisClient.PingErr = nil }()

		code, resp := serve(t, NewChecker(mqttClient, redisClient, nil, testLogger()).DetailedHandlerFunc())
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "disconnected", resp.Services.Redis)
	})

	t.Run("mqtt down", func(t *testing.T) {
		code, resp := serve(t, NewChecker(mqtttest.New(), redisClient, nil, testLogger()).DetailedHandlerFunc())
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "disconnected", resp.Services.MQTT)
	})
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"hall1", "hall2"}, cfg.Halls)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTAddress())
	assert.Equal(t, "localhost:6379", cfg.RedisAddress())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAINTMIX_MQTT_BROKER", "mosquitto")
	t.Setenv("PAINTMIX_REDIS_PORT", "6380")
	t.Setenv("PAINTMIX_POSTGRES_ENABLED", "true")
	t.Setenv("PAINTMIX_HALLS", "north, south ,")
	t.Setenv("PAINTMIX_TICK_INTERVAL_MS", "250")
	t.Setenv("PAINTMIX_REDIS_DB", "not-a-number")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "mosquitto", cfg.MQTTBroker)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.True(t, cfg.PostgresEnabled)
	assert.Equal(t, []string{"north", "south"}, cfg.Halls)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 0, cfg.RedisDB, "unparseable values keep the default")
}

func TestRegisterFlagsOverrides(t *testing.T) {
	cfg := NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--halls=a,b,c", "--pots-per-hall=1"}))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Halls)
	assert.Equal(t, 1, cfg.PotsPerHall)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing broker", func(c *Config) { c.MQTTBroker = "" }},
		{"bad redis port", func(c *Config) { c.RedisPort = 70000 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"no halls", func(c *Config) { c.Halls = nil }},
		{"zero tick", func(c *Config) { c.TickIntervalMs = 0 }},
		{"postgres without host", func(c *Config) {
			c.PostgresEnabled = true
			c.PostgresHost = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := NewConfig()
	cfg.PostgresPassword = "secret"
	assert.Equal(t,
		"host=localhost port=5432 user=paintmix password=secret dbname=paintmix sslmode=disable",
		cfg.PostgresConnectionString())
}

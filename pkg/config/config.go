package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a paintmix agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresEnabled            bool
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Weather configuration
	WeatherCity          string
	WeatherMaxAgeMinutes int

	// Facility configuration
	Halls            []string
	PotsPerHall      int
	TickIntervalMs   int
	MaxResultHistory int
	SeedFile         string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:                 "localhost",
		MQTTPort:                   1883,
		RedisHost:                  "localhost",
		RedisPort:                  6379,
		RedisDB:                    0,
		PostgresEnabled:            false,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "paintmix",
		PostgresDB:                 "paintmix",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "paintmix-agent",
		HealthPort:                 8080,
		LogLevel:                   "info",
		WeatherCity:                "Amsterdam",
		// The feed refreshes every 5 minutes; older readings count as absent
		WeatherMaxAgeMinutes: 30,
		Halls:                []string{"hall1", "hall2"},
		PotsPerHall:          3,
		TickIntervalMs:       1000,
		MaxResultHistory:     500,
	}
}

// LoadFromEnv loads configuration from environment variables with PAINTMIX_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("PAINTMIX_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("PAINTMIX_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("PAINTMIX_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("PAINTMIX_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("PAINTMIX_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("PAINTMIX_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("PAINTMIX_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("PAINTMIX_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("PAINTMIX_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("PAINTMIX_POSTGRES_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.PostgresEnabled = enabled
		}
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = n
		}
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_MAX_IDLE_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxIdleConnections = n
		}
	}
	if v := os.Getenv("PAINTMIX_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}

	// Service configuration
	if v := os.Getenv("PAINTMIX_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("PAINTMIX_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("PAINTMIX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Weather configuration
	if v := os.Getenv("PAINTMIX_WEATHER_CITY"); v != "" {
		c.WeatherCity = v
	}
	if v := os.Getenv("PAINTMIX_WEATHER_MAX_AGE_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.WeatherMaxAgeMinutes = minutes
		}
	}

	// Facility configuration
	if v := os.Getenv("PAINTMIX_HALLS"); v != "" {
		c.Halls = splitList(v)
	}
	if v := os.Getenv("PAINTMIX_POTS_PER_HALL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PotsPerHall = n
		}
	}
	if v := os.Getenv("PAINTMIX_TICK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.TickIntervalMs = ms
		}
	}
	if v := os.Getenv("PAINTMIX_MAX_RESULT_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResultHistory = n
		}
	}
	if v := os.Getenv("PAINTMIX_SEED_FILE"); v != "" {
		c.SeedFile = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every config field to a flag on the given set
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.BoolVar(&c.PostgresEnabled, "postgres-enabled", c.PostgresEnabled, "Record mix results in Postgres")
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")
	fs.IntVar(&c.PostgresMaxConnections, "postgres-max-connections", c.PostgresMaxConnections, "Postgres max open connections")
	fs.IntVar(&c.PostgresMaxIdleConnections, "postgres-max-idle-connections", c.PostgresMaxIdleConnections, "Postgres max idle connections")
	fs.DurationVar(&c.PostgresConnMaxLifetime, "postgres-conn-max-lifetime", c.PostgresConnMaxLifetime, "Postgres connection max lifetime")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Weather flags
	fs.StringVar(&c.WeatherCity, "weather-city", c.WeatherCity, "City whose weather feed drives mixing effects")
	fs.IntVar(&c.WeatherMaxAgeMinutes, "weather-max-age-minutes", c.WeatherMaxAgeMinutes, "Readings older than this are ignored")

	// Facility flags
	fs.StringSliceVar(&c.Halls, "halls", c.Halls, "Mixing hall identifiers")
	fs.IntVar(&c.PotsPerHall, "pots-per-hall", c.PotsPerHall, "Pots created in each hall at startup")
	fs.IntVar(&c.TickIntervalMs, "tick-interval-ms", c.TickIntervalMs, "Mixing progress tick interval (ms)")
	fs.IntVar(&c.MaxResultHistory, "max-result-history", c.MaxResultHistory, "Mixed results kept in Redis")
	fs.StringVar(&c.SeedFile, "seed-file", c.SeedFile, "YAML file with seed ingredients")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresEnabled {
		if c.PostgresHost == "" {
			return fmt.Errorf("Postgres host is required when Postgres is enabled")
		}
		if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
			return fmt.Errorf("Postgres port must be between 1 and 65535")
		}
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if len(c.Halls) == 0 {
		return fmt.Errorf("at least one hall is required")
	}
	if c.PotsPerHall < 0 {
		return fmt.Errorf("pots per hall cannot be negative")
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.MaxResultHistory <= 0 {
		return fmt.Errorf("max result history must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// TickInterval returns the mixing tick interval as a duration
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// WeatherMaxAge returns how long a weather reading stays usable
func (c *Config) WeatherMaxAge() time.Duration {
	return time.Duration(c.WeatherMaxAgeMinutes) * time.Minute
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

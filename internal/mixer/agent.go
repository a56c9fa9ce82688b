// Package mixer is the facility agent. It takes ingredient, pot and machine
// commands over MQTT, drives running mixes once per tick, and publishes
// progress, results and the facility state.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/paintmix-platform/internal/catalog"
	"github.com/saaga0h/paintmix-platform/internal/clock"
	"github.com/saaga0h/paintmix-platform/internal/facility"
	"github.com/saaga0h/paintmix-platform/internal/history"
	"github.com/saaga0h/paintmix-platform/internal/mixing"
	"github.com/saaga0h/paintmix-platform/internal/weather"
	"github.com/saaga0h/paintmix-platform/pkg/config"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
	"github.com/saaga0h/paintmix-platform/pkg/postgres"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// Clock is the agent's time source
type Clock interface {
	Now() time.Time
}

// Agent represents the mixer agent
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	cfg      *config.Config
	logger   *slog.Logger

	timeManager *clock.TimeManager
	clock       Clock

	catalog  *catalog.Store
	facility *facility.Facility
	tracker  *weather.Tracker
	storage  *Storage
	history  *history.Store

	// Periodic tick loop
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAgent creates a new mixer agent. pgClient may be nil, in which case
// results are kept in Redis only.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	timeManager := clock.NewTimeManager(logger)
	return newAgent(mqttClient, redisClient, pgClient, cfg, logger, timeManager, timeManager)
}

func newAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger, timeManager *clock.TimeManager, clk Clock) (*Agent, error) {
	seed, err := catalog.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	store, err := catalog.NewStore(redisClient, seed, logger)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		mqtt:        mqttClient,
		redis:       redisClient,
		postgres:    pgClient,
		cfg:         cfg,
		logger:      logger,
		timeManager: timeManager,
		clock:       clk,
		catalog:     store,
		facility:    facility.New(mixing.NewSimulator(clk), cfg.Halls, cfg.PotsPerHall),
		tracker:     weather.NewTracker(cfg.WeatherMaxAge(), clk.Now),
		storage:     NewStorage(redisClient, cfg, logger),
		stopChan:    make(chan struct{}),
	}
	if pgClient != nil {
		a.history = history.NewStore(pgClient, logger)
	}
	return a, nil
}

// Start starts the mixer agent and blocks until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting mixer agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"halls", a.cfg.Halls,
		"tick_interval_ms", a.cfg.TickIntervalMs,
		"weather_city", a.cfg.WeatherCity)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if a.postgres != nil {
		if err := a.postgres.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := a.history.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if err := a.timeManager.ConfigureFromMQTT(a.mqtt); err != nil {
		a.logger.Warn("Failed to subscribe to test mode config", "error", err)
		// Not fatal - continue without test mode support
	}

	a.restoreWeather(ctx)

	if err := a.subscribe(); err != nil {
		return err
	}

	a.publishCatalog(ctx)
	a.publishFacility()
	a.startTickLoop()

	a.logger.Info("Mixer agent started and ready")

	// Block until context is cancelled
	<-ctx.Done()
	a.logger.Info("Mixer agent stopping")

	return nil
}

func (a *Agent) subscribe() error {
	subscriptions := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{mqtt.TopicIngredientCreate, a.handleIngredientCreate},
		{mqtt.TopicPotCommands, a.handleCommand},
		{mqtt.TopicMachineCommands, a.handleCommand},
		{mqtt.TopicReset, a.handleReset},
		{mqtt.RawWeatherTopic(a.cfg.WeatherCity), a.handleWeather},
	}

	for _, s := range subscriptions {
		if err := a.mqtt.Subscribe(s.topic, 1, s.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.topic, err)
		}
		a.logger.Info("Subscribed", "topic", s.topic)
	}
	return nil
}

// Stop gracefully stops the mixer agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping mixer agent")

	// Stop periodic tick loop
	if a.ticker != nil {
		a.ticker.Stop()
	}
	a.stopOnce.Do(func() { close(a.stopChan) })

	// Disconnect from MQTT
	a.mqtt.Disconnect()

	if a.postgres != nil {
		if err := a.postgres.Disconnect(); err != nil {
			a.logger.Error("Error closing Postgres connection", "error", err)
		}
	}

	// Close Redis connection
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Mixer agent stopped")
	return nil
}

// startTickLoop advances running mixes on every tick
func (a *Agent) startTickLoop() {
	a.ticker = time.NewTicker(a.cfg.TickInterval())

	go func() {
		a.logger.Info("Starting tick loop", "interval_ms", a.cfg.TickIntervalMs)
		for {
			select {
			case <-a.ticker.C:
				a.Tick(context.Background())
			case <-a.stopChan:
				return
			}
		}
	}()
}

// Tick advances every running mix once, publishes progress and handles
// finished mixes. Machine availability is re-derived from the current
// reading so an expired heat reading releases its disabled machines.
func (a *Agent) Tick(ctx context.Context) {
	changed := a.facility.ApplyWeather(a.tracker.Current())
	if changed > 0 {
		a.logger.Info("Machine availability changed", "machines_changed", changed)
	}

	report := a.facility.Tick(a.clock.Now())

	for _, p := range report.Progress {
		if err := mqtt.PublishJSON(a.mqtt, mqtt.ProgressTopic(p.Hall, p.MachineID), false, p); err != nil {
			a.logger.Warn("Failed to publish progress", "hall", p.Hall, "machine", p.Machine, "error", err)
		}
	}

	for _, done := range report.Results {
		a.handleResult(ctx, done)
	}

	for _, f := range report.Failures {
		// Finish failing after completion means the mix state is corrupt;
		// the machine has already been emptied.
		a.logger.Error("Failed to finish mix",
			"hall", f.Hall,
			"machine_id", f.MachineID,
			"invalid_state", errors.Is(f.Err, mixing.ErrInvalidState),
			"error", f.Err)
	}

	if len(report.Results) > 0 {
		a.publishCatalog(ctx)
	}
	if changed > 0 || len(report.Results) > 0 || len(report.Failures) > 0 {
		a.publishFacility()
	}
}

func (a *Agent) handleResult(ctx context.Context, done facility.CompletedMix) {
	a.logger.Info("Mix completed",
		"hall", done.Hall,
		"machine", done.Machine,
		"pot", done.Pot,
		"color", done.Result.Color.String(),
		"effective_seconds", done.Result.EffectiveSeconds)

	if err := a.storage.StoreResult(ctx, done); err != nil {
		a.logger.Error("Failed to store result", "id", done.Result.ID, "error", err)
	}

	if a.history != nil {
		entry := history.Entry{Hall: done.Hall, Machine: done.Machine, Pot: done.Pot, Result: done.Result}
		if err := a.history.Record(ctx, entry); err != nil {
			a.logger.Error("Failed to record result history", "id", done.Result.ID, "error", err)
		}
	}

	if err := mqtt.PublishJSON(a.mqtt, mqtt.ResultTopic(done.Hall), false, done); err != nil {
		a.logger.Error("Failed to publish result", "id", done.Result.ID, "error", err)
	}
}

// MixingCount is the number of mixes currently running
func (a *Agent) MixingCount() int {
	return a.facility.MixingCount()
}

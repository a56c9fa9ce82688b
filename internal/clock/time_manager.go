// Package clock provides the agent's notion of now. In test mode time runs
// from a virtual start at a configurable speed, so long mixes can be
// exercised quickly.
package clock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// TimeManager manages real or virtual time
type TimeManager struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	realNow      func() time.Time
	logger       *slog.Logger
}

// TimeConfig is the payload of the time configuration topic
type TimeConfig struct {
	VirtualStart string `json:"virtual_start"`
	TimeScale    int    `json:"time_scale"`
	TestMode     bool   `json:"test_mode"`
}

// NewTimeManager creates a time manager running on wall time
func NewTimeManager(logger *slog.Logger) *TimeManager {
	return newTimeManager(time.Now, logger)
}

func newTimeManager(realNow func() time.Time, logger *slog.Logger) *TimeManager {
	return &TimeManager{
		realStart: realNow(),
		timeScale: 1,
		realNow:   realNow,
		logger:    logger,
	}
}

// ConfigureFromMQTT subscribes to test mode configuration
func (tm *TimeManager) ConfigureFromMQTT(mqttClient mqtt.Client) error {
	handler := func(msg mqtt.Message) {
		if err := tm.Apply(msg.Payload()); err != nil {
			tm.logger.Error("Failed to apply time config", "error", err)
		}
	}

	return mqttClient.Subscribe(mqtt.TopicTimeConfig, 1, handler)
}

// Apply switches between wall time and virtual time
func (tm *TimeManager) Apply(payload []byte) error {
	var config TimeConfig
	if err := json.Unmarshal(payload, &config); err != nil {
		return fmt.Errorf("failed to parse time config: %w", err)
	}

	if !config.TestMode {
		tm.mu.Lock()
		tm.testMode = false
		tm.mu.Unlock()
		tm.logger.Info("Test mode disabled")
		return nil
	}

	virtualStart, err := time.Parse(time.RFC3339, config.VirtualStart)
	if err != nil {
		return fmt.Errorf("invalid virtual_start %q: %w", config.VirtualStart, err)
	}
	if config.TimeScale < 1 {
		config.TimeScale = 1
	}

	tm.mu.Lock()
	tm.testMode = true
	tm.virtualStart = virtualStart
	tm.realStart = tm.realNow()
	tm.timeScale = config.TimeScale
	tm.mu.Unlock()

	tm.logger.Info("Test mode configured",
		"virtual_start", config.VirtualStart,
		"time_scale", config.TimeScale)
	return nil
}

// Now returns the current time (real or virtual)
func (tm *TimeManager) Now() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.testMode {
		return tm.realNow()
	}

	realElapsed := tm.realNow().Sub(tm.realStart)
	return tm.virtualStart.Add(realElapsed * time.Duration(tm.timeScale))
}

// IsTestMode returns whether test mode is active
func (tm *TimeManager) IsTestMode() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.testMode
}

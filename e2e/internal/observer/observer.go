package observer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// CapturedMessage is a single MQTT message captured during a run
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Retained  bool        `json:"retained,omitempty"`
}

// Observer captures all paintmix traffic for later checks
type Observer struct {
	client    mqtt.Client
	messages  []CapturedMessage
	startTime time.Time
	now       func() time.Time
	mutex     sync.RWMutex
	logger    *slog.Logger
}

// NewObserver creates an observer on an already connected client
func NewObserver(client mqtt.Client, logger *slog.Logger) *Observer {
	return &Observer{
		client: client,
		now:    time.Now,
		logger: logger,
	}
}

// Start subscribes to every paintmix topic
func (o *Observer) Start() error {
	o.startTime = o.now()

	filter := mqtt.TopicPrefix + "/#"
	if err := o.client.Subscribe(filter, 0, o.messageHandler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}
	o.logger.Info("Observing", "topic", filter)
	return nil
}

func (o *Observer) messageHandler(msg mqtt.Message) {
	// Non-JSON payloads are kept as strings
	var payload interface{}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		payload = string(msg.Payload())
	}

	captured := CapturedMessage{
		Timestamp: o.now(),
		Topic:     msg.Topic(),
		Payload:   payload,
		Retained:  msg.Retained(),
	}

	o.mutex.Lock()
	o.messages = append(o.messages, captured)
	o.mutex.Unlock()

	o.logger.Debug("Captured",
		"elapsed", fmt.Sprintf("%.2fs", captured.Timestamp.Sub(o.startTime).Seconds()),
		"topic", captured.Topic,
		"payload", string(msg.Payload()))
}

// GetAllMessages returns a copy of everything captured so far
func (o *Observer) GetAllMessages() []CapturedMessage {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	messages := make([]CapturedMessage, len(o.messages))
	copy(messages, o.messages)
	return messages
}

// GetMessageCount returns the number of captured messages
func (o *Observer) GetMessageCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.messages)
}

// SaveCapture writes every captured message to a JSON file
func (o *Observer) SaveCapture(filename string) error {
	o.mutex.RLock()
	data, err := json.MarshalIndent(o.messages, "", "  ")
	count := len(o.messages)
	o.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}

	o.logger.Info("Saved capture", "messages", count, "file", filename)
	return nil
}

// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"sync"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// Published is one message sent through the fake
type Published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

type subscription struct {
	filter  string
	handler mqtt.MessageHandler
}

// Fake records publishes and routes Deliver calls to matching subscribers
type Fake struct {
	// Loopback makes Publish deliver to matching subscribers, like a broker
	Loopback bool

	mu        sync.Mutex
	connected bool
	subs      []subscription
	published []Published
}

var _ mqtt.Client = (*Fake)(nil)

// New creates a disconnected fake
func New() *Fake {
	return &Fake{}
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *Fake) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *Fake) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, subscription{filter: topic, handler: handler})
	return nil
}

func (f *Fake) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	f.published = append(f.published, Published{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	f.mu.Unlock()

	if f.Loopback {
		f.Deliver(topic, payload)
	}
	return nil
}

func (f *Fake) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Subscriptions lists subscribed topic filters in order
func (f *Fake) Subscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.subs))
	for i, s := range f.subs {
		out[i] = s.filter
	}
	return out
}

// Deliver hands a message to every subscriber whose filter matches topic,
// synchronously. It reports how many handlers ran.
func (f *Fake) Deliver(topic string, payload []byte) int {
	f.mu.Lock()
	var handlers []mqtt.MessageHandler
	for _, s := range f.subs {
		if mqtt.TopicMatches(s.filter, topic) {
			handlers = append(handlers, s.handler)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(&message{topic: topic, payload: payload})
	}
	return len(handlers)
}

// Published returns every message published on topic
func (f *Fake) Published(topic string) []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Published
	for _, p := range f.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// PublishedMatching returns every message whose topic matches filter
func (f *Fake) PublishedMatching(filter string) []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Published
	for _, p := range f.published {
		if mqtt.TopicMatches(filter, p.Topic) {
			out = append(out, p)
		}
	}
	return out
}

// Reset forgets recorded publishes
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Topic() string   { return m.topic }
func (m *message) Payload() []byte { return m.payload }
func (m *message) Retained() bool  { return false }
func (m *message) Ack()            {}

package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt/mqtttest"
)

func TestObserverCaptures(t *testing.T) {
	client := mqtttest.New()
	require.NoError(t, client.Connect(context.Background()))

	obs := NewObserver(client, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	require.NoError(t, obs.Start())
	assert.Equal(t, []string{"paintmix/#"}, client.Subscriptions())

	client.Deliver("paintmix/result/hall1", []byte(`{"pot":"Pot 1"}`))
	client.Deliver("paintmix/status/mixer", []byte(`online`))
	client.Deliver("automation/raw/motion/hall", []byte(`{}`))

	msgs := obs.GetAllMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]interface{}{"pot": "Pot 1"}, msgs[0].Payload)
	assert.Equal(t, "online", msgs[1].Payload)

	path := filepath.Join(t.TempDir(), "captures", "run.json")
	require.NoError(t, obs.SaveCapture(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved []CapturedMessage
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Len(t, saved, 2)
}

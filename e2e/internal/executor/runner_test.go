package executor

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt/mqtttest"
	"github.com/saaga0h/paintmix-platform/pkg/redis/redistest"
)

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	broker := mqtttest.New()
	broker.Loopback = true
	require.NoError(t, broker.Connect(ctx))

	// Stand-in agent answering a reset with the facility context
	require.NoError(t, broker.Subscribe(mqtt.TopicReset, 1, func(msg mqtt.Message) {
		_ = broker.Publish(mqtt.TopicFacilityContext, 0, true, []byte(`{"halls":[{"name":"hall1","machines":[]}]}`))
	}))

	store := redistest.New()
	require.NoError(t, store.LPush(ctx, "paintmix:results", `{"pot":"Pot 1"}`))

	index := int64(0)
	s := &scenario.Scenario{
		Name:     "reset",
		TestMode: &scenario.TestModeConfig{VirtualStart: "2026-06-01T09:00:00Z", TimeScale: 60},
		Steps:    []scenario.Step{{Time: 0, Topic: mqtt.TopicReset, Description: "start clean"}},
		Expectations: map[string][]scenario.Expectation{
			"mqtt": {
				{Time: 0, Topic: mqtt.TopicFacilityContext, Payload: map[string]interface{}{
					"halls": []interface{}{map[string]interface{}{"name": "hall1"}},
				}},
				{Time: 0, Topic: "paintmix/result/+"},
			},
			"storage": {{Time: 0, RedisKey: "paintmix:results", RedisIndex: &index, Expected: map[string]interface{}{"pot": "Pot 1"}}},
			"history": {{Time: 0, PostgresQuery: "SELECT count(*) FROM mix_results", PostgresExpected: 1}},
		},
	}

	runner := NewRunner(broker, store, nil, logger)
	runner.StartupDelay = 0

	result, events, err := runner.Run(ctx, s)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.PassedCount)
	assert.Equal(t, 2, result.FailedCount)
	require.Len(t, events, 5)
	assert.Equal(t, "step", events[0].Layer)

	reasons := map[string]string{}
	for _, r := range result.Expectations {
		if !r.Passed {
			reasons[r.Expectation.Target()] = r.Reason
		}
	}
	assert.Contains(t, reasons["paintmix/result/+"], "no messages")
	assert.Contains(t, reasons["postgres query"], "not initialized")

	timeConfig := broker.Published(mqtt.TopicTimeConfig)
	require.Len(t, timeConfig, 1)
	assert.True(t, timeConfig[0].Retained)
	assert.JSONEq(t, `{"virtual_start":"2026-06-01T09:00:00Z","time_scale":60,"test_mode":true}`, string(timeConfig[0].Payload))
}

func TestTimelineOrdering(t *testing.T) {
	s := &scenario.Scenario{
		Steps: []scenario.Step{{Time: 0, Topic: "a"}, {Time: 10, Topic: "b"}},
		Expectations: map[string][]scenario.Expectation{
			"z": {{Time: 10, Topic: "check-b"}},
			"a": {{Time: 5, Topic: "check-a"}},
		},
	}

	var order []string
	for _, a := range timeline(s) {
		if a.step != nil {
			order = append(order, a.step.Topic)
		} else {
			order = append(order, a.exp.Topic)
		}
	}
	assert.Equal(t, []string{"a", "check-a", "b", "check-b"}, order)
}

func TestScaledOffset(t *testing.T) {
	assert.Equal(t, 30*time.Second, scaledOffset(60, 2))
	assert.Equal(t, 60*time.Second, scaledOffset(60, 0))
}

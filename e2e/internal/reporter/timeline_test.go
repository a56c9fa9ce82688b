package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
)

func sampleResult() *scenario.TestResult {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	return &scenario.TestResult{
		Scenario:    &scenario.Scenario{Name: "rainy_mix"},
		StartTime:   start,
		EndTime:     start.Add(75 * time.Second),
		PassedCount: 1,
		FailedCount: 1,
		Expectations: []scenario.ExpectationResult{
			{Layer: "mqtt", Expectation: scenario.Expectation{Topic: "paintmix/result/hall1"}, Passed: true},
			{Layer: "storage", Expectation: scenario.Expectation{RedisKey: "paintmix:results"}, Reason: "not found"},
		},
	}
}

func TestGenerateTimeline(t *testing.T) {
	out := GenerateTimeline(sampleResult(), []TimelineEvent{
		{Elapsed: 0.01, Layer: "step", Description: "paintmix/command/reset (start clean)"},
		{Elapsed: 2, Layer: "mqtt", Description: "paintmix/result/hall1", IsCheck: true, Success: true},
		{Elapsed: 3, Layer: "storage", Description: "redis paintmix:results", IsCheck: true},
	})

	assert.Contains(t, out, "Scenario: rainy_mix")
	assert.Contains(t, out, "Duration: 1m 15.0s")
	assert.Contains(t, out, "→ step")
	assert.Contains(t, out, "✗ [storage] redis paintmix:results: not found")
	assert.Contains(t, out, "1 EXPECTATION(S) FAILED")
}

func TestSaveSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries", "rainy_mix.json")
	require.NoError(t, SaveSummary(sampleResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["passed"])
	assert.EqualValues(t, 1, decoded["failed_count"])
}

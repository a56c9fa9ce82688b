package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: rainy_mix
description: mix in the rain
test_mode:
  virtual_start: "2026-06-01T09:00:00Z"
  time_scale: 10
steps:
  - time: 0
    topic: paintmix/command/reset
    description: start clean
  - time: 1
    topic: paintmix/raw/weather/amsterdam
    payload:
      temperature: 5
      condition: Rain
expectations:
  weather:
    - time: 2
      topic: paintmix/context/weather
      payload:
        modifier: 1.265
  storage:
    - time: 3
      redis_key: paintmix:results
      redis_index: 0
      expected: "~Pot 1~"
`

func TestLoadScenarioFromBytes(t *testing.T) {
	s, err := LoadScenarioFromBytes([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "rainy_mix", s.Name)
	require.NotNil(t, s.TestMode)
	assert.Equal(t, 10, s.TestMode.TimeScale)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, 5, s.Steps[1].Payload["temperature"])

	require.Len(t, s.Expectations["storage"], 1)
	exp := s.Expectations["storage"][0]
	require.NotNil(t, exp.RedisIndex)
	assert.Equal(t, int64(0), *exp.RedisIndex)
	assert.Equal(t, "redis paintmix:results", exp.Target())
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rainy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "rainy_mix", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateScenario(t *testing.T) {
	s := &Scenario{
		Steps: []Step{
			{Time: 5, Topic: "paintmix/command/reset"},
			{Time: 1, Topic: "automation/raw/motion/hall"},
		},
		Expectations: map[string][]Expectation{
			"mqtt": {{Time: 1}, {Time: 2, Topic: "paintmix/result/hall1", RedisKey: "x"}},
		},
	}

	err := ValidateScenario(s)
	require.Error(t, err)
	for _, want := range []string{"name is required", "before the previous step", "outside paintmix/", "mqtt[0]", "mqtt[1]"} {
		assert.Contains(t, err.Error(), want)
	}
}

package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes parses and validates a scenario
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := ValidateScenario(&s); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &s, nil
}

// ValidateScenario checks the structure of a scenario. Every problem found
// is reported, not just the first.
func ValidateScenario(s *Scenario) error {
	var errs []string

	if s.Name == "" {
		errs = append(errs, "name is required")
	}
	if len(s.Steps) == 0 {
		errs = append(errs, "at least one step is required")
	}
	if s.TestMode != nil && s.TestMode.TimeScale < 1 {
		errs = append(errs, "test_mode.time_scale must be at least 1")
	}

	last := 0
	for i, step := range s.Steps {
		if step.Time < last {
			errs = append(errs, fmt.Sprintf("step %d: time %d is before the previous step", i, step.Time))
		}
		last = step.Time
		if !strings.HasPrefix(step.Topic, mqtt.TopicPrefix+"/") {
			errs = append(errs, fmt.Sprintf("step %d: topic %q is outside %s/", i, step.Topic, mqtt.TopicPrefix))
		}
	}

	for layer, exps := range s.Expectations {
		for i, exp := range exps {
			targets := 0
			for _, set := range []bool{exp.Topic != "", exp.RedisKey != "", exp.PostgresQuery != ""} {
				if set {
					targets++
				}
			}
			if targets != 1 {
				errs = append(errs, fmt.Sprintf("%s[%d]: exactly one of topic, redis_key or postgres_query is required", layer, i))
			}
			if exp.Time < 0 {
				errs = append(errs, fmt.Sprintf("%s[%d]: time must not be negative", layer, i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

package scenario

import "time"

// Scenario is a scripted run against a live mixer agent
type Scenario struct {
	Name         string                   `yaml:"name" json:"name"`
	Description  string                   `yaml:"description" json:"description"`
	TestMode     *TestModeConfig          `yaml:"test_mode,omitempty" json:"test_mode,omitempty"`
	Steps        []Step                   `yaml:"steps" json:"steps"`
	Expectations map[string][]Expectation `yaml:"expectations" json:"expectations"`
}

// TestModeConfig is published to the agents' time config topic before the
// run starts
type TestModeConfig struct {
	VirtualStart string `yaml:"virtual_start" json:"virtual_start"`
	TimeScale    int    `yaml:"time_scale" json:"time_scale"`
}

// Step publishes one message at a point in the run
type Step struct {
	Time        int                    `yaml:"time" json:"time"` // Seconds from start
	Topic       string                 `yaml:"topic" json:"topic"`
	Payload     map[string]interface{} `yaml:"payload,omitempty" json:"payload,omitempty"`
	Retained    bool                   `yaml:"retained,omitempty" json:"retained,omitempty"`
	Description string                 `yaml:"description" json:"description"`
}

// Expectation is checked once its time is reached. Exactly one of Topic,
// RedisKey or PostgresQuery selects what is checked.
type Expectation struct {
	Time    int                    `yaml:"time" json:"time"`
	Topic   string                 `yaml:"topic,omitempty" json:"topic,omitempty"` // may hold + and # wildcards
	Payload map[string]interface{} `yaml:"payload,omitempty" json:"payload,omitempty"`

	// Redis: a hash field when RedisField is set, else the list element at
	// RedisIndex, else the string value
	RedisKey   string      `yaml:"redis_key,omitempty" json:"redis_key,omitempty"`
	RedisField string      `yaml:"redis_field,omitempty" json:"redis_field,omitempty"`
	RedisIndex *int64      `yaml:"redis_index,omitempty" json:"redis_index,omitempty"`
	Expected   interface{} `yaml:"expected,omitempty" json:"expected,omitempty"`

	PostgresQuery    string      `yaml:"postgres_query,omitempty" json:"postgres_query,omitempty"`
	PostgresExpected interface{} `yaml:"postgres_expected,omitempty" json:"postgres_expected,omitempty"`
}

// Target names what the expectation looks at, for reports
func (e Expectation) Target() string {
	switch {
	case e.PostgresQuery != "":
		return "postgres query"
	case e.RedisKey != "":
		return "redis " + e.RedisKey
	default:
		return e.Topic
	}
}

// TestResult is the outcome of a run
type TestResult struct {
	Scenario     *Scenario           `json:"scenario"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Passed       bool                `json:"passed"`
	PassedCount  int                 `json:"passed_count"`
	FailedCount  int                 `json:"failed_count"`
	Expectations []ExpectationResult `json:"expectations"`
}

// ExpectationResult is the outcome of one expectation
type ExpectationResult struct {
	Layer       string      `json:"layer"`
	Expectation Expectation `json:"expectation"`
	Passed      bool        `json:"passed"`
	Reason      string      `json:"reason,omitempty"`
	Actual      interface{} `json:"actual,omitempty"`
}

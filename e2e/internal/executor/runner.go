package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/saaga0h/paintmix-platform/e2e/internal/checker"
	"github.com/saaga0h/paintmix-platform/e2e/internal/observer"
	"github.com/saaga0h/paintmix-platform/e2e/internal/reporter"
	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
	"github.com/saaga0h/paintmix-platform/internal/clock"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// Runner orchestrates scenario execution against live agents
type Runner struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres *checker.PostgresChecker
	observer *observer.Observer
	logger   *slog.Logger

	// StartupDelay gives agents time to pick up the test mode config
	StartupDelay time.Duration
}

// NewRunner creates a runner on connected clients. pgChecker may be nil,
// in which case Postgres expectations fail.
func NewRunner(mqttClient mqtt.Client, redisClient redis.Client, pgChecker *checker.PostgresChecker, logger *slog.Logger) *Runner {
	return &Runner{
		mqtt:         mqttClient,
		redis:        redisClient,
		postgres:     pgChecker,
		observer:     observer.NewObserver(mqttClient, logger),
		logger:       logger,
		StartupDelay: 5 * time.Second,
	}
}

// action is a step or a check placed on the run timeline
type action struct {
	time  int
	step  *scenario.Step
	layer string
	exp   *scenario.Expectation
}

func timeline(s *scenario.Scenario) []action {
	var actions []action
	for i := range s.Steps {
		actions = append(actions, action{time: s.Steps[i].Time, step: &s.Steps[i]})
	}

	layers := make([]string, 0, len(s.Expectations))
	for layer := range s.Expectations {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		exps := s.Expectations[layer]
		for i := range exps {
			actions = append(actions, action{time: exps[i].Time, layer: layer, exp: &exps[i]})
		}
	}

	// Steps run before checks scheduled for the same second
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].time != actions[j].time {
			return actions[i].time < actions[j].time
		}
		return actions[i].step != nil && actions[j].step == nil
	})
	return actions
}

// Run executes a scenario and returns its result and timeline
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("Starting scenario", "name", s.Name, "description", s.Description)

	timeScale := 1
	if s.TestMode != nil {
		timeScale = s.TestMode.TimeScale
		if err := r.publishTestMode(s.TestMode); err != nil {
			return nil, nil, err
		}
	}

	if r.StartupDelay > 0 {
		r.logger.Info("Waiting for agents to start up", "delay", r.StartupDelay)
		select {
		case <-time.After(r.StartupDelay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	if err := r.observer.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start observer: %w", err)
	}

	result := &scenario.TestResult{Scenario: s, StartTime: time.Now()}
	var events []reporter.TimelineEvent

	for _, a := range timeline(s) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		WaitUntil(result.StartTime, a.time, timeScale)
		elapsed := GetElapsed(result.StartTime)

		if a.step != nil {
			if err := r.publishStep(*a.step); err != nil {
				return nil, nil, err
			}
			events = append(events, reporter.TimelineEvent{
				Elapsed:     elapsed,
				Layer:       "step",
				Description: fmt.Sprintf("%s (%s)", a.step.Topic, a.step.Description),
			})
			continue
		}

		passed, reason, actual := r.check(ctx, *a.exp)
		result.Expectations = append(result.Expectations, scenario.ExpectationResult{
			Layer:       a.layer,
			Expectation: *a.exp,
			Passed:      passed,
			Reason:      reason,
			Actual:      actual,
		})
		if passed {
			result.PassedCount++
			r.logger.Info("Expectation passed", "layer", a.layer, "target", a.exp.Target())
		} else {
			result.FailedCount++
			r.logger.Warn("Expectation failed", "layer", a.layer, "target", a.exp.Target(), "reason", reason)
		}
		events = append(events, reporter.TimelineEvent{
			Elapsed:     elapsed,
			Layer:       a.layer,
			Description: a.exp.Target(),
			Success:     passed,
			IsCheck:     true,
		})
	}

	result.EndTime = time.Now()
	result.Passed = result.FailedCount == 0
	return result, events, nil
}

func (r *Runner) check(ctx context.Context, exp scenario.Expectation) (bool, string, interface{}) {
	switch {
	case exp.PostgresQuery != "":
		if r.postgres == nil {
			return false, "postgres checker not initialized", nil
		}
		return r.postgres.CheckQuery(ctx, exp.PostgresQuery, exp.PostgresExpected)
	case exp.RedisKey != "":
		return checker.CheckRedisExpectation(ctx, r.redis, exp)
	default:
		return checker.CheckExpectation(exp, r.observer.GetAllMessages())
	}
}

func (r *Runner) publishStep(step scenario.Step) error {
	payload := []byte("{}")
	if step.Payload != nil {
		data, err := json.Marshal(step.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload for %s: %w", step.Topic, err)
		}
		payload = data
	}

	if err := r.mqtt.Publish(step.Topic, 1, step.Retained, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", step.Topic, err)
	}
	r.logger.Debug("Published step", "topic", step.Topic, "payload", string(payload))
	return nil
}

// publishTestMode publishes the time config retained so agents that start
// later still pick it up
func (r *Runner) publishTestMode(tm *scenario.TestModeConfig) error {
	cfg := clock.TimeConfig{
		VirtualStart: tm.VirtualStart,
		TimeScale:    tm.TimeScale,
		TestMode:     true,
	}
	if err := mqtt.PublishJSON(r.mqtt, mqtt.TopicTimeConfig, true, cfg); err != nil {
		return fmt.Errorf("failed to publish test mode config: %w", err)
	}
	r.logger.Info("Published test mode configuration",
		"virtual_start", tm.VirtualStart,
		"time_scale", tm.TimeScale)
	return nil
}

// SaveCapture saves the MQTT capture to a file
func (r *Runner) SaveCapture(filename string) error {
	return r.observer.SaveCapture(filename)
}

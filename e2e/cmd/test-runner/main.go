package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/saaga0h/paintmix-platform/e2e/internal/checker"
	"github.com/saaga0h/paintmix-platform/e2e/internal/executor"
	"github.com/saaga0h/paintmix-platform/e2e/internal/reporter"
	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
	"github.com/saaga0h/paintmix-platform/pkg/config"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
	"github.com/saaga0h/paintmix-platform/pkg/postgres"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

func main() {
	cfg := config.NewConfig()
	cfg.ServiceName = "test-runner"
	cfg.LoadFromEnv()

	fs := pflag.NewFlagSet("test-runner", pflag.ExitOnError)
	cfg.RegisterFlags(fs)
	scenarioPath := fs.String("scenario", "", "Path to YAML scenario file (required)")
	outputDir := fs.String("output-dir", "./test-output", "Output directory for test artifacts")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		fs.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mqttClient := mqtt.NewClient(cfg, logger)
	if err := mqttClient.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to MQTT: %v\n", err)
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	redisClient := redis.NewClient(cfg, logger)
	if err := redisClient.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	var pgChecker *checker.PostgresChecker
	if cfg.PostgresEnabled {
		pgChecker, err = checker.NewPostgresChecker(ctx, postgres.NewClient(cfg, logger), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Postgres: %v\n", err)
			os.Exit(1)
		}
		defer pgChecker.Close()
	}

	runner := executor.NewRunner(mqttClient, redisClient, pgChecker, logger)
	result, events, err := runner.Run(ctx, scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Test execution failed: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	timeline := reporter.GenerateTimeline(result, events)
	fmt.Println(timeline)

	artifacts := []struct {
		kind string
		path string
		save func(string) error
	}{
		{"timeline", filepath.Join(*outputDir, "timelines", name+".txt"), func(p string) error { return reporter.SaveTimeline(timeline, p) }},
		{"capture", filepath.Join(*outputDir, "captures", name+".json"), runner.SaveCapture},
		{"summary", filepath.Join(*outputDir, "summaries", name+".json"), func(p string) error { return reporter.SaveSummary(result, p) }},
	}
	for _, a := range artifacts {
		if err := a.save(a.path); err != nil {
			logger.Warn("Failed to save artifact", "kind", a.kind, "error", err)
			continue
		}
		logger.Info("Artifact saved", "kind", a.kind, "path", a.path)
	}

	if !result.Passed {
		os.Exit(1)
	}
}

package mixer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/paintmix-platform/internal/facility"
	"github.com/saaga0h/paintmix-platform/internal/weather"
	"github.com/saaga0h/paintmix-platform/pkg/config"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

// Storage keeps results and the latest weather in Redis
type Storage struct {
	redis            redis.Client
	maxResultHistory int
	weatherTTL       time.Duration
	logger           *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	return &Storage{
		redis:            redisClient,
		maxResultHistory: cfg.MaxResultHistory,
		weatherTTL:       cfg.WeatherMaxAge(),
		logger:           logger,
	}
}

// StoreResult pushes a finished mix onto the results list and trims it
func (s *Storage) StoreResult(ctx context.Context, done facility.CompletedMix) error {
	data, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := s.redis.LPush(ctx, redis.ResultsKey, data); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	if err := s.redis.LTrim(ctx, redis.ResultsKey, 0, int64(s.maxResultHistory-1)); err != nil {
		s.logger.Warn("Failed to trim result history", "error", err)
	}
	return nil
}

// RecentResults returns up to limit stored results, newest first
func (s *Storage) RecentResults(ctx context.Context, limit int) ([]facility.CompletedMix, error) {
	raw, err := s.redis.LRange(ctx, redis.ResultsKey, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	results := make([]facility.CompletedMix, 0, len(raw))
	for _, r := range raw {
		var done facility.CompletedMix
		if err := json.Unmarshal([]byte(r), &done); err != nil {
			s.logger.Warn("Skipping unreadable result", "error", err)
			continue
		}
		results = append(results, done)
	}
	return results, nil
}

// StoreWeather saves the latest observation for its city with the
// configured TTL
func (s *Storage) StoreWeather(ctx context.Context, obs weather.Observation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal weather: %w", err)
	}
	if err := s.redis.Set(ctx, redis.WeatherKey(strings.ToLower(obs.City)), data, s.weatherTTL); err != nil {
		return fmt.Errorf("failed to store weather: %w", err)
	}
	return nil
}

// LoadWeather reads the stored observation for a city; ok is false when
// there is none
func (s *Storage) LoadWeather(ctx context.Context, city string) (obs weather.Observation, ok bool, err error) {
	raw, err := s.redis.Get(ctx, redis.WeatherKey(strings.ToLower(city)))
	if errors.Is(err, redis.ErrNotFound) {
		return weather.Observation{}, false, nil
	}
	if err != nil {
		return weather.Observation{}, false, fmt.Errorf("failed to load weather: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &obs); err != nil {
		return weather.Observation{}, false, fmt.Errorf("failed to decode weather: %w", err)
	}
	return obs, true, nil
}

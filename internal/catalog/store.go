// Package catalog is the ingredient source. Created ingredients live in a
// Redis hash keyed by name; seed ingredients are held in memory only.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/pkg/redis"
)

var (
	ErrNotFound  = errors.New("ingredient not found")
	ErrDuplicate = errors.New("ingredient already exists")
)

// Store reads and writes ingredients
type Store struct {
	redis  redis.Client
	logger *slog.Logger

	mu   sync.RWMutex
	seed map[string]paint.Ingredient
}

// NewStore creates a store with the given seed ingredients. Seeds are
// flagged and validated; the first of two seeds with the same name wins.
func NewStore(client redis.Client, seed []paint.Ingredient, logger *slog.Logger) (*Store, error) {
	s := &Store{
		redis:  client,
		logger: logger,
		seed:   make(map[string]paint.Ingredient, len(seed)),
	}
	for _, ing := range seed {
		if err := ing.Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed ingredient: %w", err)
		}
		key := normalizeName(ing.Name)
		if _, exists := s.seed[key]; exists {
			logger.Warn("Ignoring duplicate seed ingredient", "name", ing.Name)
			continue
		}
		ing.Seed = true
		s.seed[key] = ing
	}
	return s, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Create registers a new ingredient. A name already in use, seed or
// stored, is rejected with ErrDuplicate.
func (s *Store) Create(ctx context.Context, ing paint.Ingredient) (paint.Ingredient, error) {
	ing.Name = strings.TrimSpace(ing.Name)
	ing.Seed = false
	texture, err := paint.ParseTexture(string(ing.Texture))
	if err != nil {
		return paint.Ingredient{}, err
	}
	ing.Texture = texture
	if err := ing.Validate(); err != nil {
		return paint.Ingredient{}, err
	}

	key := normalizeName(ing.Name)
	s.mu.RLock()
	_, isSeed := s.seed[key]
	s.mu.RUnlock()
	if isSeed {
		return paint.Ingredient{}, fmt.Errorf("%w: %s", ErrDuplicate, ing.Name)
	}

	data, err := json.Marshal(ing)
	if err != nil {
		return paint.Ingredient{}, fmt.Errorf("failed to marshal ingredient %s: %w", ing.Name, err)
	}

	set, err := s.redis.HSetNX(ctx, redis.IngredientsKey, key, data)
	if err != nil {
		return paint.Ingredient{}, fmt.Errorf("failed to store ingredient %s: %w", ing.Name, err)
	}
	if !set {
		return paint.Ingredient{}, fmt.Errorf("%w: %s", ErrDuplicate, ing.Name)
	}

	s.logger.Info("Ingredient created",
		"name", ing.Name,
		"color", ing.Color.String(),
		"mix_time", ing.MixSeconds,
		"mix_speed", ing.MixSpeed,
		"texture", ing.Texture)
	return ing, nil
}

// Get looks an ingredient up by name, case-insensitively
func (s *Store) Get(ctx context.Context, name string) (paint.Ingredient, error) {
	key := normalizeName(name)

	s.mu.RLock()
	ing, ok := s.seed[key]
	s.mu.RUnlock()
	if ok {
		return ing, nil
	}

	raw, err := s.redis.HGet(ctx, redis.IngredientsKey, key)
	if errors.Is(err, redis.ErrNotFound) {
		return paint.Ingredient{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return paint.Ingredient{}, fmt.Errorf("failed to load ingredient %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(raw), &ing); err != nil {
		return paint.Ingredient{}, fmt.Errorf("failed to decode ingredient %s: %w", name, err)
	}
	return ing, nil
}

// All returns seed and stored ingredients sorted by name. Stored entries
// that fail to decode are logged and skipped.
func (s *Store) All(ctx context.Context) ([]paint.Ingredient, error) {
	stored, err := s.redis.HGetAll(ctx, redis.IngredientsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	s.mu.RLock()
	out := make([]paint.Ingredient, 0, len(s.seed)+len(stored))
	for _, ing := range s.seed {
		out = append(out, ing)
	}
	s.mu.RUnlock()

	for key, raw := range stored {
		var ing paint.Ingredient
		if err := json.Unmarshal([]byte(raw), &ing); err != nil {
			s.logger.Warn("Skipping unreadable ingredient", "name", key, "error", err)
			continue
		}
		out = append(out, ing)
	}

	sort.Slice(out, func(i, j int) bool {
		return normalizeName(out[i].Name) < normalizeName(out[j].Name)
	})
	return out, nil
}

// Reset drops every created ingredient and the stored results. Seed
// ingredients remain.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.redis.Del(ctx, redis.IngredientsKey, redis.ResultsKey); err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	s.logger.Info("Catalog reset", "seed_ingredients", len(s.seed))
	return nil
}

// Package mixing runs the timed mixing of a pot. A mix is driven by the
// caller through Advance; nothing in here sleeps or owns a timer.
package mixing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
)

// ErrInvalidState means Finish was called before the mix completed. It is a
// caller bug, not a user error.
var ErrInvalidState = errors.New("mix is not completed")

// State of a mix. A started mix is never idle; a pot waiting in a machine
// is reported by the machine's occupied state instead.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText lets states travel as strings in events
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateRunning, StateCompleted} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown mix state %q", text)
}

// Clock supplies start and completion timestamps
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// IngredientSnapshot is what a mix keeps of each ingredient
type IngredientSnapshot struct {
	Name    string        `json:"name"`
	Color   color.RGB     `json:"color"`
	Texture paint.Texture `json:"texture"`
}

// MixResult is the outcome of a completed mix
type MixResult struct {
	ID               uuid.UUID            `json:"id"`
	Color            color.RGB            `json:"color"`
	Ingredients      []IngredientSnapshot `json:"ingredients"`
	BaseSeconds      int                  `json:"base_seconds"`
	EffectiveSeconds int                  `json:"effective_seconds"`
	Modifier         float64              `json:"modifier"`
	StartedAt        time.Time            `json:"started_at"`
	CompletedAt      time.Time            `json:"completed_at"`
}

// Progress is reported by Advance
type Progress struct {
	Fraction float64 `json:"progress"`
	State    State   `json:"state"`
}

// Percent is Fraction on a 0-100 scale, rounded down
func (p Progress) Percent() int {
	return int(p.Fraction * 100)
}

// Simulator starts mixes
type Simulator struct {
	clock Clock
	newID func() uuid.UUID
}

// NewSimulator creates a simulator; a nil clock uses wall time
func NewSimulator(clock Clock) *Simulator {
	if clock == nil {
		clock = systemClock{}
	}
	return &Simulator{clock: clock, newID: uuid.New}
}

// Start captures the pot contents and the weather modifier and returns a
// running mix. An empty pot fails with paint.ErrPotEmpty.
func (s *Simulator) Start(pot *paint.Pot, reading *weather.Reading) (*RunningMix, error) {
	if pot == nil || pot.Len() == 0 {
		return nil, paint.ErrPotEmpty
	}

	ingredients := pot.Ingredients()
	snapshot := make([]IngredientSnapshot, len(ingredients))
	for i, ing := range ingredients {
		snapshot[i] = IngredientSnapshot{Name: ing.Name, Color: ing.Color, Texture: ing.Texture}
	}

	base := pot.BaseDuration()
	return &RunningMix{
		id:          s.newID(),
		potName:     pot.Name,
		ingredients: snapshot,
		base:        base,
		effective:   weather.EffectiveDuration(base, reading),
		modifier:    weather.DurationModifier(reading),
		startedAt:   s.clock.Now(),
		state:       StateRunning,
	}, nil
}

// RunningMix is one in-flight mix. It is not safe for concurrent use.
// Dropping it before Finish cancels the mix.
type RunningMix struct {
	id          uuid.UUID
	potName     string
	ingredients []IngredientSnapshot
	base        int
	effective   int
	modifier    float64
	startedAt   time.Time

	fraction float64
	state    State
}

// Advance reports progress after elapsed time since start. Progress never
// goes backwards and completion is final.
func (m *RunningMix) Advance(elapsed time.Duration) Progress {
	if m.state == StateCompleted {
		return Progress{Fraction: 1, State: StateCompleted}
	}
	if elapsed < 0 {
		elapsed = 0
	}

	if m.effective == 0 || elapsed >= m.EffectiveDuration() {
		m.fraction = 1
		m.state = StateCompleted
		return Progress{Fraction: 1, State: StateCompleted}
	}

	if f := elapsed.Seconds() / float64(m.effective); f > m.fraction {
		m.fraction = f
	}
	return Progress{Fraction: m.fraction, State: m.state}
}

// Finish returns the result of a completed mix. Repeated calls return the
// same result.
func (m *RunningMix) Finish() (MixResult, error) {
	if m.state != StateCompleted {
		return MixResult{}, fmt.Errorf("%w: mix %s is %s", ErrInvalidState, m.id, m.state)
	}

	colors := make([]color.RGB, len(m.ingredients))
	for i, ing := range m.ingredients {
		colors[i] = ing.Color
	}
	mixed, err := color.AverageRGB(colors)
	if err != nil {
		return MixResult{}, fmt.Errorf("failed to mix %s: %w", m.id, err)
	}

	ingredients := make([]IngredientSnapshot, len(m.ingredients))
	copy(ingredients, m.ingredients)

	return MixResult{
		ID:               m.id,
		Color:            mixed,
		Ingredients:      ingredients,
		BaseSeconds:      m.base,
		EffectiveSeconds: m.effective,
		Modifier:         m.modifier,
		StartedAt:        m.startedAt,
		CompletedAt:      m.startedAt.Add(m.EffectiveDuration()),
	}, nil
}

// ID is the id the result will carry
func (m *RunningMix) ID() uuid.UUID { return m.id }

// PotName is the name of the pot the mix was started from
func (m *RunningMix) PotName() string { return m.potName }

// State is the current state
func (m *RunningMix) State() State { return m.state }

// StartedAt is the clock time at Start
func (m *RunningMix) StartedAt() time.Time { return m.startedAt }

// EffectiveSeconds is the weather-adjusted duration in whole seconds
func (m *RunningMix) EffectiveSeconds() int { return m.effective }

// EffectiveDuration is EffectiveSeconds as a duration
func (m *RunningMix) EffectiveDuration() time.Duration {
	return time.Duration(m.effective) * time.Second
}

// Ingredients returns a copy of the captured ingredients
func (m *RunningMix) Ingredients() []IngredientSnapshot {
	out := make([]IngredientSnapshot, len(m.ingredients))
	copy(out, m.ingredients)
	return out
}

package facility

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/paintmix-platform/internal/mixing"
	"github.com/saaga0h/paintmix-platform/internal/paint"
)

// MachineState is the machine lifecycle: Empty -> Occupied -> Mixing -> Empty
type MachineState int

const (
	MachineEmpty MachineState = iota
	MachineOccupied
	MachineMixing
)

func (s MachineState) String() string {
	switch s {
	case MachineEmpty:
		return "empty"
	case MachineOccupied:
		return "occupied"
	case MachineMixing:
		return "mixing"
	}
	return fmt.Sprintf("machine_state(%d)", int(s))
}

// MarshalText encodes the state by name
func (s MachineState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a state written by MarshalText
func (s *MachineState) UnmarshalText(text []byte) error {
	for _, st := range []MachineState{MachineEmpty, MachineOccupied, MachineMixing} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown machine state %q", text)
}

// PotSnapshot is a read-only view of a pot
type PotSnapshot struct {
	Name        string             `json:"name"`
	Ingredients []paint.Ingredient `json:"ingredients"`
	BaseSeconds int                `json:"base_seconds"`
	MixSpeed    int                `json:"mix_speed,omitempty"`
}

// MachineSnapshot is a read-only view of a machine
type MachineSnapshot struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Settings         Settings     `json:"settings"`
	AdjustedSeconds  int          `json:"adjusted_time"`
	State            MachineState `json:"state"`
	Disabled         bool         `json:"disabled"`
	Pot              *PotSnapshot `json:"pot,omitempty"`
	MixID            string       `json:"mix_id,omitempty"`
	Progress         float64      `json:"progress"`
	EffectiveSeconds int          `json:"effective_seconds,omitempty"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
}

// HallSnapshot is a read-only view of a hall
type HallSnapshot struct {
	Name     string            `json:"name"`
	Pots     []PotSnapshot     `json:"pots"`
	Machines []MachineSnapshot `json:"machines"`
}

// Snapshot is a read-only view of the facility
type Snapshot struct {
	Halls []HallSnapshot `json:"halls"`
}

// Hall finds a hall by name
func (s Snapshot) Hall(name string) (HallSnapshot, bool) {
	for _, h := range s.Halls {
		if h.Name == name {
			return h, true
		}
	}
	return HallSnapshot{}, false
}

// ProgressUpdate is one running mix after a tick
type ProgressUpdate struct {
	Hall             string          `json:"hall"`
	MachineID        string          `json:"machine_id"`
	Machine          string          `json:"machine"`
	Pot              string          `json:"pot"`
	MixID            uuid.UUID       `json:"mix_id"`
	Progress         mixing.Progress `json:"progress"`
	Percent          int             `json:"percent"`
	RemainingSeconds int             `json:"remaining_seconds"`
}

// CompletedMix is a mix that finished during a tick
type CompletedMix struct {
	Hall      string           `json:"hall"`
	MachineID string           `json:"machine_id"`
	Machine   string           `json:"machine"`
	Pot       string           `json:"pot"`
	Result    mixing.MixResult `json:"result"`
}

// FailedMix is a completed mix whose result could not be produced
type FailedMix struct {
	Hall      string
	MachineID string
	Err       error
}

// TickReport is everything that happened during one Tick
type TickReport struct {
	Progress []ProgressUpdate
	Results  []CompletedMix
	Failures []FailedMix
}

// Package facility keeps the halls of the plant: their pots, their mixing
// machines and the mixes running on them. All methods are safe for
// concurrent use; a single mutex serializes every mutation.
package facility

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/paintmix-platform/internal/mixing"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
)

// DefaultPotName is used when a pot is created without a name
const DefaultPotName = "New Pot"

var (
	ErrNotFound        = errors.New("not found")
	ErrMachineLimit    = errors.New("machine limit reached")
	ErrMachineBusy     = errors.New("machine already holds a pot")
	ErrMachineDisabled = errors.New("machine disabled by weather")
	ErrMachineEmpty    = errors.New("machine holds no pot")
	ErrInvalidSettings = errors.New("invalid machine settings")
)

// Settings are the values a machine is configured with. They are shown to
// operators; the mix duration itself comes from the pot.
type Settings struct {
	SpeedRPM    int `json:"speed"`
	BaseSeconds int `json:"time"`
}

// Validate checks that both settings are positive
func (s Settings) Validate() error {
	if s.SpeedRPM <= 0 || s.BaseSeconds <= 0 {
		return fmt.Errorf("%w: speed %d, time %d", ErrInvalidSettings, s.SpeedRPM, s.BaseSeconds)
	}
	return nil
}

type machine struct {
	id              string
	name            string
	settings        Settings
	adjustedSeconds int
	state           MachineState
	disabled        bool
	pot             *paint.Pot
	mix             *mixing.RunningMix
	progress        mixing.Progress
}

type hall struct {
	name     string
	pots     []*paint.Pot
	machines []*machine
}

// Facility is the set of halls
type Facility struct {
	mu          sync.Mutex
	halls       map[string]*hall
	order       []string
	potsPerHall int
	sim         *mixing.Simulator
	newID       func() string
}

// New creates a facility with the given halls, each holding potsPerHall
// empty pots named "Pot 1".."Pot N".
func New(sim *mixing.Simulator, halls []string, potsPerHall int) *Facility {
	f := &Facility{
		halls:       make(map[string]*hall, len(halls)),
		potsPerHall: potsPerHall,
		sim:         sim,
		newID:       uuid.NewString,
	}
	for _, name := range halls {
		if _, exists := f.halls[name]; exists {
			continue
		}
		f.order = append(f.order, name)
	}
	f.resetLocked()
	return f
}

// Reset drops every machine and mix and restores the default pots
func (f *Facility) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Facility) resetLocked() {
	for _, name := range f.order {
		h := &hall{name: name}
		for i := 1; i <= f.potsPerHall; i++ {
			h.pots = append(h.pots, paint.NewPot(fmt.Sprintf("Pot %d", i)))
		}
		f.halls[name] = h
	}
}

// Halls lists hall names in configuration order
func (f *Facility) Halls() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

func (f *Facility) hall(name string) (*hall, error) {
	h, ok := f.halls[name]
	if !ok {
		return nil, fmt.Errorf("%w: hall %q", ErrNotFound, name)
	}
	return h, nil
}

func (h *hall) pot(name string) (int, *paint.Pot, error) {
	for i, p := range h.pots {
		if p.Name == name {
			return i, p, nil
		}
	}
	return -1, nil, fmt.Errorf("%w: pot %q in %s", ErrNotFound, name, h.name)
}

// machine finds a machine by id, or by its display name
func (h *hall) machine(id string) (*machine, error) {
	for _, m := range h.machines {
		if m.id == id || m.name == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: machine %q in %s", ErrNotFound, id, h.name)
}

func (h *hall) hasPotName(name string) bool {
	_, _, err := h.pot(name)
	return err == nil
}

// CreatePot adds an empty pot to a hall and returns its final name. A name
// already taken in the hall gets a numeric suffix.
func (f *Facility) CreatePot(hallName, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.hall(hallName)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = DefaultPotName
	}

	unique := name
	for n := 2; h.hasPotName(unique) || f.potInMachine(h, unique); n++ {
		unique = fmt.Sprintf("%s %d", name, n)
	}

	h.pots = append(h.pots, paint.NewPot(unique))
	return unique, nil
}

func (f *Facility) potInMachine(h *hall, name string) bool {
	for _, m := range h.machines {
		if m.pot != nil && m.pot.Name == name {
			return true
		}
	}
	return false
}

// AddIngredient puts an ingredient into a pot that is standing in a hall.
// Capacity errors leave the pot unchanged.
func (f *Facility) AddIngredient(hallName, potName string, ing paint.Ingredient) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.hall(hallName)
	if err != nil {
		return err
	}
	_, pot, err := h.pot(potName)
	if err != nil {
		return err
	}
	return pot.Add(ing)
}

// CreateMachine adds a machine to a hall when the weather allows another one
func (f *Facility) CreateMachine(hallName string, settings Settings, reading *weather.Reading) (MachineSnapshot, error) {
	if err := settings.Validate(); err != nil {
		return MachineSnapshot{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.hall(hallName)
	if err != nil {
		return MachineSnapshot{}, err
	}
	if !paint.CanCreateMachine(len(h.machines), reading) {
		return MachineSnapshot{}, fmt.Errorf("%w: %s has %d machines (limit %d)",
			ErrMachineLimit, hallName, len(h.machines), weather.ActiveMachineLimit(reading))
	}

	m := &machine{
		id:              f.newID(),
		name:            fmt.Sprintf("Machine %d", len(h.machines)+1),
		settings:        settings,
		adjustedSeconds: weather.EffectiveDuration(settings.BaseSeconds, reading),
		state:           MachineEmpty,
	}
	h.machines = append(h.machines, m)
	return m.snapshot(), nil
}

// AssignPot moves a pot from the hall floor into a machine and starts the
// mix. On any error the pot stays in the hall and the machine stays empty.
func (f *Facility) AssignPot(hallName, machineID, potName string, reading *weather.Reading) (MachineSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.hall(hallName)
	if err != nil {
		return MachineSnapshot{}, err
	}
	m, err := h.machine(machineID)
	if err != nil {
		return MachineSnapshot{}, err
	}
	if m.disabled {
		return MachineSnapshot{}, fmt.Errorf("%w: %s", ErrMachineDisabled, m.name)
	}
	if m.state != MachineEmpty {
		return MachineSnapshot{}, fmt.Errorf("%w: %s", ErrMachineBusy, m.name)
	}
	idx, pot, err := h.pot(potName)
	if err != nil {
		return MachineSnapshot{}, err
	}

	h.pots = slices.Delete(h.pots, idx, idx+1)
	m.pot = pot
	m.state = MachineOccupied

	mix, err := f.sim.Start(pot, reading)
	if err != nil {
		m.clear()
		h.pots = slices.Insert(h.pots, idx, pot)
		return MachineSnapshot{}, err
	}
	m.mix = mix
	m.progress = mixing.Progress{State: mix.State()}
	m.state = MachineMixing

	return m.snapshot(), nil
}

// Release takes the pot out of a machine. An unfinished mix is discarded
// without a result and the pot goes back to the hall.
func (f *Facility) Release(hallName, machineID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.hall(hallName)
	if err != nil {
		return "", err
	}
	m, err := h.machine(machineID)
	if err != nil {
		return "", err
	}
	if m.pot == nil {
		return "", fmt.Errorf("%w: %s", ErrMachineEmpty, m.name)
	}

	pot := m.pot
	m.clear()
	h.pots = append(h.pots, pot)
	return pot.Name, nil
}

// ApplyWeather enables or disables machines for the reading. Above the heat
// threshold only the first machine of each hall stays enabled. A disabled
// machine that is mixing finishes its mix.
func (f *Facility) ApplyWeather(reading *weather.Reading) (changed int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	limit := weather.ActiveMachineLimit(reading)
	for _, name := range f.order {
		for i, m := range f.halls[name].machines {
			disabled := i >= limit
			if m.disabled != disabled {
				m.disabled = disabled
				changed++
			}
		}
	}
	return changed
}

// Tick advances every running mix to now. Completed mixes are finished and
// their machines emptied; the consumed pot is gone.
func (f *Facility) Tick(now time.Time) TickReport {
	f.mu.Lock()
	defer f.mu.Unlock()

	var report TickReport
	for _, name := range f.order {
		for _, m := range f.halls[name].machines {
			if m.state != MachineMixing {
				continue
			}

			elapsed := now.Sub(m.mix.StartedAt())
			p := m.mix.Advance(elapsed)
			m.progress = p

			remaining := m.mix.EffectiveDuration() - elapsed
			if remaining < 0 {
				remaining = 0
			}
			report.Progress = append(report.Progress, ProgressUpdate{
				Hall:             name,
				MachineID:        m.id,
				Machine:          m.name,
				Pot:              m.mix.PotName(),
				MixID:            m.mix.ID(),
				Progress:         p,
				Percent:          p.Percent(),
				RemainingSeconds: int(remaining.Round(time.Second) / time.Second),
			})

			if p.State != mixing.StateCompleted {
				continue
			}

			result, err := m.mix.Finish()
			if err != nil {
				report.Failures = append(report.Failures, FailedMix{Hall: name, MachineID: m.id, Err: err})
			} else {
				report.Results = append(report.Results, CompletedMix{
					Hall:      name,
					MachineID: m.id,
					Machine:   m.name,
					Pot:       m.mix.PotName(),
					Result:    result,
				})
			}
			m.clear()
		}
	}
	return report
}

// Snapshot returns a copy of the whole facility
func (f *Facility) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{Halls: make([]HallSnapshot, 0, len(f.order))}
	for _, name := range f.order {
		h := f.halls[name]
		hs := HallSnapshot{
			Name:     name,
			Pots:     make([]PotSnapshot, 0, len(h.pots)),
			Machines: make([]MachineSnapshot, 0, len(h.machines)),
		}
		for _, p := range h.pots {
			hs.Pots = append(hs.Pots, potSnapshot(p))
		}
		for _, m := range h.machines {
			hs.Machines = append(hs.Machines, m.snapshot())
		}
		snap.Halls = append(snap.Halls, hs)
	}
	return snap
}

// MixingCount is the number of machines currently mixing
func (f *Facility) MixingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, h := range f.halls {
		for _, m := range h.machines {
			if m.state == MachineMixing {
				n++
			}
		}
	}
	return n
}

func (m *machine) clear() {
	m.pot = nil
	m.mix = nil
	m.progress = mixing.Progress{}
	m.state = MachineEmpty
}

func (m *machine) snapshot() MachineSnapshot {
	s := MachineSnapshot{
		ID:              m.id,
		Name:            m.name,
		Settings:        m.settings,
		AdjustedSeconds: m.adjustedSeconds,
		State:           m.state,
		Disabled:        m.disabled,
	}
	if m.pot != nil {
		ps := potSnapshot(m.pot)
		s.Pot = &ps
	}
	if m.mix != nil {
		s.MixID = m.mix.ID().String()
		s.Progress = m.progress.Fraction
		s.EffectiveSeconds = m.mix.EffectiveSeconds()
		started := m.mix.StartedAt()
		s.StartedAt = &started
	}
	return s
}

func potSnapshot(p *paint.Pot) PotSnapshot {
	return PotSnapshot{
		Name:        p.Name,
		Ingredients: p.Ingredients(),
		BaseSeconds: p.BaseDuration(),
		MixSpeed:    p.MixSpeed(),
	}
}

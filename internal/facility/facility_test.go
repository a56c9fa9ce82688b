package facility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/mixing"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

var (
	t0 = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	red    = paint.Ingredient{Name: "Red", MixSeconds: 30, MixSpeed: 100, Color: color.RGB{R: 255}, Texture: paint.TextureSmooth}
	blue   = paint.Ingredient{Name: "Blue", MixSeconds: 40, MixSpeed: 100, Color: color.RGB{B: 255}, Texture: paint.TextureGranular}
	yellow = paint.Ingredient{Name: "Yellow", MixSeconds: 25, MixSpeed: 120, Color: color.RGB{R: 255, G: 255}, Texture: paint.TexturePowder}

	mild = &weather.Reading{TemperatureC: 18, Condition: weather.ConditionClear}
	hot  = &weather.Reading{TemperatureC: 38, Condition: weather.ConditionClear}
)

func newTestFacility() (*Facility, *stubClock) {
	clock := &stubClock{now: t0}
	f := New(mixing.NewSimulator(clock), []string{"hall1", "hall2"}, 3)
	return f, clock
}

func TestNewSeedsDefaultPots(t *testing.T) {
	f, _ := newTestFacility()

	assert.Equal(t, []string{"hall1", "hall2"}, f.Halls())
	snap := f.Snapshot()
	require.Len(t, snap.Halls, 2)
	for _, h := range snap.Halls {
		require.Len(t, h.Pots, 3)
		assert.Equal(t, "Pot 1", h.Pots[0].Name)
		assert.Equal(t, "Pot 3", h.Pots[2].Name)
		assert.Empty(t, h.Machines)
	}
}

func TestCreatePotNames(t *testing.T) {
	f, _ := newTestFacility()

	name, err := f.CreatePot("hall1", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPotName, name)

	name, err = f.CreatePot("hall1", "")
	require.NoError(t, err)
	assert.Equal(t, "New Pot 2", name)

	name, err = f.CreatePot("hall1", "Pot 1")
	require.NoError(t, err)
	assert.Equal(t, "Pot 1 2", name)

	_, err = f.CreatePot("hall9", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddIngredientCapacity(t *testing.T) {
	f, _ := newTestFacility()

	require.NoError(t, f.AddIngredient("hall1", "Pot 1", red))
	assert.ErrorIs(t, f.AddIngredient("hall1", "Pot 1", yellow), paint.ErrSpeedMismatch)
	require.NoError(t, f.AddIngredient("hall1", "Pot 1", blue))
	require.NoError(t, f.AddIngredient("hall1", "Pot 1", red))
	assert.ErrorIs(t, f.AddIngredient("hall1", "Pot 1", red), paint.ErrPotFull)
	assert.ErrorIs(t, f.AddIngredient("hall1", "Pot 9", red), ErrNotFound)

	hall, ok := f.Snapshot().Hall("hall1")
	require.True(t, ok)
	assert.Len(t, hall.Pots[0].Ingredients, 3)
	assert.Equal(t, 40, hall.Pots[0].BaseSeconds)
}

func TestCreateMachineLimits(t *testing.T) {
	f, _ := newTestFacility()
	settings := Settings{SpeedRPM: 100, BaseSeconds: 30}

	for i := 0; i < weather.MaxMachinesPerHall; i++ {
		_, err := f.CreateMachine("hall1", settings, mild)
		require.NoError(t, err)
	}
	_, err := f.CreateMachine("hall1", settings, mild)
	assert.ErrorIs(t, err, ErrMachineLimit)

	m, err := f.CreateMachine("hall2", settings, hot)
	require.NoError(t, err)
	assert.Equal(t, "Machine 1", m.Name)
	_, err = f.CreateMachine("hall2", settings, hot)
	assert.ErrorIs(t, err, ErrMachineLimit)

	_, err = f.CreateMachine("hall2", Settings{SpeedRPM: 0, BaseSeconds: 10}, mild)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestCreateMachineAdjustedSeconds(t *testing.T) {
	f, _ := newTestFacility()

	m, err := f.CreateMachine("hall1", Settings{SpeedRPM: 100, BaseSeconds: 100}, &weather.Reading{TemperatureC: 5, Condition: weather.ConditionRain})
	require.NoError(t, err)
	assert.Equal(t, 127, m.AdjustedSeconds)
	assert.Equal(t, MachineEmpty, m.State)
}

func TestMixLifecycle(t *testing.T) {
	f, clock := newTestFacility()
	require.NoError(t, f.AddIngredient("hall1", "Pot 2", red))
	require.NoError(t, f.AddIngredient("hall1", "Pot 2", blue))

	m, err := f.CreateMachine("hall1", Settings{SpeedRPM: 100, BaseSeconds: 30}, mild)
	require.NoError(t, err)

	assigned, err := f.AssignPot("hall1", m.ID, "Pot 2", mild)
	require.NoError(t, err)
	assert.Equal(t, MachineMixing, assigned.State)
	require.NotNil(t, assigned.Pot)
	assert.Equal(t, "Pot 2", assigned.Pot.Name)
	assert.Equal(t, 40, assigned.EffectiveSeconds)

	hall, _ := f.Snapshot().Hall("hall1")
	assert.Len(t, hall.Pots, 2, "pot leaves the hall floor while mixing")
	assert.Equal(t, 1, f.MixingCount())

	_, err = f.AssignPot("hall1", m.ID, "Pot 1", mild)
	assert.ErrorIs(t, err, ErrMachineBusy)

	clock.now = t0.Add(10 * time.Second)
	report := f.Tick(clock.now)
	require.Len(t, report.Progress, 1)
	assert.InDelta(t, 0.25, report.Progress[0].Progress.Fraction, 1e-9)
	assert.Equal(t, 25, report.Progress[0].Percent)
	assert.Equal(t, 30, report.Progress[0].RemainingSeconds)
	assert.Empty(t, report.Results)

	clock.now = t0.Add(40 * time.Second)
	report = f.Tick(clock.now)
	require.Len(t, report.Results, 1)
	done := report.Results[0]
	assert.Equal(t, "hall1", done.Hall)
	assert.Equal(t, "Pot 2", done.Pot)
	assert.Equal(t, color.RGB{R: 128, B: 128}, done.Result.Color)
	assert.Equal(t, t0.Add(40*time.Second), done.Result.CompletedAt)
	assert.Equal(t, report.Progress[0].MixID, done.Result.ID)

	snap, _ := f.Snapshot().Hall("hall1")
	require.Len(t, snap.Machines, 1)
	assert.Equal(t, MachineEmpty, snap.Machines[0].State)
	assert.Nil(t, snap.Machines[0].Pot)
	assert.Len(t, snap.Pots, 2, "the consumed pot is gone")
	assert.Equal(t, 0, f.MixingCount())

	assert.Empty(t, f.Tick(clock.now.Add(time.Minute)).Results)
}

func TestAssignEmptyPotLeavesStateUntouched(t *testing.T) {
	f, _ := newTestFacility()
	m, err := f.CreateMachine("hall1", Settings{SpeedRPM: 100, BaseSeconds: 30}, mild)
	require.NoError(t, err)

	_, err = f.AssignPot("hall1", m.ID, "Pot 2", mild)
	assert.ErrorIs(t, err, paint.ErrCapacity)

	hall, _ := f.Snapshot().Hall("hall1")
	assert.Equal(t, []string{"Pot 1", "Pot 2", "Pot 3"}, []string{hall.Pots[0].Name, hall.Pots[1].Name, hall.Pots[2].Name})
	assert.Equal(t, MachineEmpty, hall.Machines[0].State)

	_, err = f.AssignPot("hall1", "nope", "Pot 2", mild)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseCancelsWithoutResult(t *testing.T) {
	f, clock := newTestFacility()
	require.NoError(t, f.AddIngredient("hall2", "Pot 1", red))
	m, err := f.CreateMachine("hall2", Settings{SpeedRPM: 100, BaseSeconds: 30}, nil)
	require.NoError(t, err)
	_, err = f.AssignPot("hall2", m.ID, "Pot 1", nil)
	require.NoError(t, err)

	name, err := f.Release("hall2", m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pot 1", name)

	report := f.Tick(clock.now.Add(time.Hour))
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Progress)

	hall, _ := f.Snapshot().Hall("hall2")
	assert.Len(t, hall.Pots, 3)
	assert.Len(t, hall.Pots[2].Ingredients, 1, "released pot keeps its ingredients")

	_, err = f.Release("hall2", m.ID)
	assert.ErrorIs(t, err, ErrMachineEmpty)
}

func TestApplyWeatherDisablesAllButFirst(t *testing.T) {
	f, clock := newTestFacility()
	var ids []string
	for i := 0; i < 3; i++ {
		m, err := f.CreateMachine("hall1", Settings{SpeedRPM: 100, BaseSeconds: 30}, mild)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	require.NoError(t, f.AddIngredient("hall1", "Pot 1", red))
	_, err := f.AssignPot("hall1", ids[2], "Pot 1", mild)
	require.NoError(t, err)

	assert.Equal(t, 2, f.ApplyWeather(hot))
	assert.Equal(t, 0, f.ApplyWeather(hot))

	hall, _ := f.Snapshot().Hall("hall1")
	assert.False(t, hall.Machines[0].Disabled)
	assert.True(t, hall.Machines[1].Disabled)
	assert.True(t, hall.Machines[2].Disabled)

	require.NoError(t, f.AddIngredient("hall1", "Pot 2", blue))
	_, err = f.AssignPot("hall1", ids[1], "Pot 2", hot)
	assert.ErrorIs(t, err, ErrMachineDisabled)

	report := f.Tick(clock.now.Add(30 * time.Second))
	require.Len(t, report.Results, 1, "a mix running on a disabled machine still finishes")

	assert.Equal(t, 2, f.ApplyWeather(mild))
	hall, _ = f.Snapshot().Hall("hall1")
	for _, m := range hall.Machines {
		assert.False(t, m.Disabled)
	}
}

func TestReset(t *testing.T) {
	f, _ := newTestFacility()
	_, err := f.CreatePot("hall1", "extra")
	require.NoError(t, err)
	_, err = f.CreateMachine("hall1", Settings{SpeedRPM: 100, BaseSeconds: 30}, nil)
	require.NoError(t, err)

	f.Reset()

	hall, _ := f.Snapshot().Hall("hall1")
	assert.Len(t, hall.Pots, 3)
	assert.Empty(t, hall.Machines)
}

func TestMachineStateString(t *testing.T) {
	assert.Equal(t, "empty", MachineEmpty.String())
	assert.Equal(t, "occupied", MachineOccupied.String())
	assert.Equal(t, "mixing", MachineMixing.String())
}

package mixer

import (
	"context"
	"time"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/facility"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// catalogChannel is the rejection channel for ingredient commands, which
// do not belong to a hall
const catalogChannel = "catalog"

// Rejection is published when a command is refused
type Rejection struct {
	Action string    `json:"action"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// WeatherContext is the retained weather state
type WeatherContext struct {
	City         string           `json:"city"`
	TemperatureC int              `json:"temperature"`
	Condition    string           `json:"condition"`
	Modifier     float64          `json:"modifier"`
	MachineLimit int              `json:"machine_limit"`
	Effects      []weather.Effect `json:"effects"`
	ObservedAt   time.Time        `json:"observed_at"`
}

// FacilityContext is the retained facility state
type FacilityContext struct {
	facility.Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// CatalogContext is the retained ingredient list. Palette holds the unique
// colors of recent mixes followed by those of created ingredients.
type CatalogContext struct {
	Ingredients []paint.Ingredient `json:"ingredients"`
	Palette     []color.RGB        `json:"palette"`
	Timestamp   time.Time          `json:"timestamp"`
}

func (a *Agent) handleIngredientCreate(msg mqtt.Message) {
	ctx := context.Background()

	ing, err := ParseIngredient(msg.Payload())
	if err != nil {
		a.reject(catalogChannel, "ingredient/create", err)
		return
	}

	if _, err := a.catalog.Create(ctx, ing); err != nil {
		a.reject(catalogChannel, "ingredient/create", err)
		return
	}
	a.publishCatalog(ctx)
}

func (a *Agent) handleCommand(msg mqtt.Message) {
	topic := msg.Topic()
	a.logger.Debug("Received command", "topic", topic, "size", len(msg.Payload()))

	cmd, err := ParseCommand(topic, msg.Payload())
	if err != nil {
		hall := "unknown"
		if _, h, _, perr := mqtt.ParseCommandTopic(topic); perr == nil {
			hall = h
		}
		a.reject(hall, topic, err)
		return
	}

	if err := a.execute(context.Background(), cmd); err != nil {
		a.reject(cmd.Hall, cmd.Kind+"/"+cmd.Action, err)
		return
	}
	a.publishFacility()
}

func (a *Agent) execute(ctx context.Context, cmd *Command) error {
	reading := a.tracker.Current()

	switch cmd.Kind + "/" + cmd.Action {
	case "pot/create":
		name, err := a.facility.CreatePot(cmd.Hall, cmd.Name)
		if err != nil {
			return err
		}
		a.logger.Info("Pot created", "hall", cmd.Hall, "pot", name)

	case "pot/add":
		ing, err := a.catalog.Get(ctx, cmd.Ingredient)
		if err != nil {
			return err
		}
		if err := a.facility.AddIngredient(cmd.Hall, cmd.Pot, ing); err != nil {
			return err
		}
		a.logger.Info("Ingredient added", "hall", cmd.Hall, "pot", cmd.Pot, "ingredient", ing.Name)

	case "machine/create":
		m, err := a.facility.CreateMachine(cmd.Hall, facility.Settings{SpeedRPM: cmd.Speed, BaseSeconds: cmd.Time}, reading)
		if err != nil {
			return err
		}
		a.logger.Info("Machine created",
			"hall", cmd.Hall,
			"machine", m.Name,
			"id", m.ID,
			"speed", m.Settings.SpeedRPM,
			"adjusted_seconds", m.AdjustedSeconds)

	case "machine/assign":
		m, err := a.facility.AssignPot(cmd.Hall, cmd.Machine, cmd.Pot, reading)
		if err != nil {
			return err
		}
		a.logger.Info("Mixing started",
			"hall", cmd.Hall,
			"machine", m.Name,
			"pot", cmd.Pot,
			"mix_id", m.MixID,
			"effective_seconds", m.EffectiveSeconds,
			"modifier", weather.DurationModifier(reading))

	case "machine/release":
		pot, err := a.facility.Release(cmd.Hall, cmd.Machine)
		if err != nil {
			return err
		}
		a.logger.Info("Machine released", "hall", cmd.Hall, "machine", cmd.Machine, "pot", pot)
	}
	return nil
}

func (a *Agent) handleReset(msg mqtt.Message) {
	ctx := context.Background()

	if err := a.catalog.Reset(ctx); err != nil {
		a.logger.Error("Failed to reset catalog", "error", err)
	}
	a.facility.Reset()
	a.facility.ApplyWeather(a.tracker.Current())

	a.logger.Info("Facility reset")
	a.publishCatalog(ctx)
	a.publishFacility()
}

func (a *Agent) handleWeather(msg mqtt.Message) {
	reading, err := ParseWeather(msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse weather message", "topic", msg.Topic(), "error", err)
		return
	}

	obs := weather.Observation{
		Reading:    reading,
		City:       a.cfg.WeatherCity,
		ObservedAt: a.clock.Now(),
	}
	a.applyWeather(obs)

	if err := a.storage.StoreWeather(context.Background(), obs); err != nil {
		a.logger.Warn("Failed to store weather", "error", err)
	}
}

func (a *Agent) applyWeather(obs weather.Observation) {
	a.tracker.Update(obs)
	changed := a.facility.ApplyWeather(a.tracker.Current())

	a.logger.Info("Weather updated",
		"city", obs.City,
		"temperature", obs.Reading.TemperatureC,
		"condition", obs.Reading.Condition,
		"modifier", weather.DurationModifier(&obs.Reading),
		"machines_changed", changed)

	a.publishWeather(obs)
	if changed > 0 {
		a.publishFacility()
	}
}

// restoreWeather loads the last stored reading so a restart does not lose
// the weather effects
func (a *Agent) restoreWeather(ctx context.Context) {
	obs, ok, err := a.storage.LoadWeather(ctx, a.cfg.WeatherCity)
	if err != nil {
		a.logger.Warn("Failed to restore weather", "error", err)
		return
	}
	if !ok {
		a.logger.Info("No stored weather, running without weather effects", "city", a.cfg.WeatherCity)
		return
	}
	a.applyWeather(obs)
}

func (a *Agent) publishWeather(obs weather.Observation) {
	r := obs.Reading
	payload := WeatherContext{
		City:         obs.City,
		TemperatureC: r.TemperatureC,
		Condition:    string(r.Condition),
		Modifier:     weather.DurationModifier(&r),
		MachineLimit: weather.ActiveMachineLimit(&r),
		Effects:      weather.Effects(&r),
		ObservedAt:   obs.ObservedAt,
	}
	if err := mqtt.PublishJSON(a.mqtt, mqtt.TopicWeatherContext, true, payload); err != nil {
		a.logger.Warn("Failed to publish weather context", "error", err)
	}
}

func (a *Agent) publishFacility() {
	payload := FacilityContext{Snapshot: a.facility.Snapshot(), Timestamp: a.clock.Now()}
	if err := mqtt.PublishJSON(a.mqtt, mqtt.TopicFacilityContext, true, payload); err != nil {
		a.logger.Warn("Failed to publish facility context", "error", err)
	}
}

func (a *Agent) publishCatalog(ctx context.Context) {
	ingredients, err := a.catalog.All(ctx)
	if err != nil {
		a.logger.Warn("Failed to list ingredients", "error", err)
		return
	}

	mixed, err := a.recentColors(ctx)
	if err != nil {
		a.logger.Warn("Failed to load recent results, palette has ingredient colors only", "error", err)
	}

	seen := make(map[color.RGB]bool)
	palette := make([]color.RGB, 0, len(mixed)+len(ingredients))
	add := func(c color.RGB) {
		if !seen[c] {
			seen[c] = true
			palette = append(palette, c)
		}
	}
	for _, c := range mixed {
		add(c)
	}
	for _, ing := range ingredients {
		if !ing.Seed {
			add(ing.Color)
		}
	}

	payload := CatalogContext{Ingredients: ingredients, Palette: palette, Timestamp: a.clock.Now()}
	if err := mqtt.PublishJSON(a.mqtt, mqtt.TopicCatalogContext, true, payload); err != nil {
		a.logger.Warn("Failed to publish catalog context", "error", err)
	}
}

// recentColors reads result colors newest first, from Postgres when the
// history is enabled and from the Redis result list otherwise
func (a *Agent) recentColors(ctx context.Context) ([]color.RGB, error) {
	limit := a.cfg.MaxResultHistory

	if a.history != nil {
		entries, err := a.history.Recent(ctx, limit)
		if err != nil {
			return nil, err
		}
		out := make([]color.RGB, len(entries))
		for i, e := range entries {
			out[i] = e.Result.Color
		}
		return out, nil
	}

	results, err := a.storage.RecentResults(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]color.RGB, len(results))
	for i, r := range results {
		out[i] = r.Result.Color
	}
	return out, nil
}

func (a *Agent) reject(hall, action string, err error) {
	a.logger.Warn("Command rejected", "hall", hall, "action", action, "reason", err)

	payload := Rejection{Action: action, Reason: err.Error(), At: a.clock.Now()}
	if perr := mqtt.PublishJSON(a.mqtt, mqtt.RejectedTopic(hall), false, payload); perr != nil {
		a.logger.Error("Failed to publish rejection", "hall", hall, "error", perr)
	}
}

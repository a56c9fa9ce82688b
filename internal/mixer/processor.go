package mixer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// ErrInvalidCommand is returned for payloads that cannot be acted on
var ErrInvalidCommand = errors.New("invalid command")

// Command kinds and actions carried in the topic
const (
	KindPot     = "pot"
	KindMachine = "machine"

	ActionCreate  = "create"
	ActionAdd     = "add"
	ActionAssign  = "assign"
	ActionRelease = "release"
)

// Command is a pot or machine command. Kind, Hall and Action come from the
// topic, the rest from the JSON payload.
type Command struct {
	Kind   string `json:"-"`
	Hall   string `json:"-"`
	Action string `json:"-"`

	Name       string `json:"name,omitempty"`
	Pot        string `json:"pot,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Speed      int    `json:"speed,omitempty"`
	Time       int    `json:"time,omitempty"`
}

// IngredientCommand is the payload of the ingredient create topic
type IngredientCommand struct {
	Name     string `json:"name"`
	MixTime  int    `json:"mix_time"`
	MixSpeed int    `json:"mix_speed"`
	Color    string `json:"color"`
	Texture  string `json:"texture"`
}

// ParseCommand decodes a pot or machine command and checks that the fields
// its action needs are present
func ParseCommand(topic string, payload []byte) (*Command, error) {
	kind, hall, action, err := mqtt.ParseCommandTopic(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	cmd := &Command{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: failed to parse payload: %v", ErrInvalidCommand, err)
		}
	}
	cmd.Kind, cmd.Hall, cmd.Action = kind, hall, action

	switch kind + "/" + action {
	case "pot/create":
	case "pot/add":
		if cmd.Pot == "" || cmd.Ingredient == "" {
			return nil, fmt.Errorf("%w: pot and ingredient are required", ErrInvalidCommand)
		}
	case "machine/create":
		if cmd.Speed <= 0 || cmd.Time <= 0 {
			return nil, fmt.Errorf("%w: speed and time must be positive", ErrInvalidCommand)
		}
	case "machine/assign":
		if cmd.Machine == "" || cmd.Pot == "" {
			return nil, fmt.Errorf("%w: machine and pot are required", ErrInvalidCommand)
		}
	case "machine/release":
		if cmd.Machine == "" {
			return nil, fmt.Errorf("%w: machine is required", ErrInvalidCommand)
		}
	default:
		return nil, fmt.Errorf("%w: unknown command %s/%s", ErrInvalidCommand, kind, action)
	}
	return cmd, nil
}

// ParseIngredient decodes an ingredient create payload into an ingredient
func ParseIngredient(payload []byte) (paint.Ingredient, error) {
	var cmd IngredientCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return paint.Ingredient{}, fmt.Errorf("%w: failed to parse payload: %v", ErrInvalidCommand, err)
	}

	c, err := color.ParseColor(cmd.Color)
	if err != nil {
		return paint.Ingredient{}, err
	}

	return paint.Ingredient{
		Name:       cmd.Name,
		MixSeconds: cmd.MixTime,
		MixSpeed:   cmd.MixSpeed,
		Color:      c,
		Texture:    paint.Texture(cmd.Texture),
	}, nil
}

// weatherPayload accepts the flat feed format and the OpenWeatherMap
// current-weather format
type weatherPayload struct {
	Temperature *float64 `json:"temperature"`
	Condition   string   `json:"condition"`

	Main *struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// ParseWeather decodes a weather feed message. Temperatures are rounded to
// whole degrees.
func ParseWeather(payload []byte) (weather.Reading, error) {
	var p weatherPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return weather.Reading{}, fmt.Errorf("failed to parse weather payload: %w", err)
	}

	var temp float64
	switch {
	case p.Temperature != nil:
		temp = *p.Temperature
	case p.Main != nil:
		temp = p.Main.Temp
	default:
		return weather.Reading{}, errors.New("weather payload has no temperature")
	}

	condition := strings.TrimSpace(p.Condition)
	if condition == "" && len(p.Weather) > 0 {
		condition = p.Weather[0].Main
	}

	return weather.Reading{
		TemperatureC: int(math.Round(temp)),
		Condition:    weather.NormalizeCondition(condition),
	}, nil
}

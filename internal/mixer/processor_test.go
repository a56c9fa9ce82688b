package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/paint"
	"github.com/saaga0h/paintmix-platform/internal/weather"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    Command
		wantErr bool
	}{
		{
			name:    "pot create without payload",
			topic:   "paintmix/command/pot/hall1/create",
			payload: "",
			want:    Command{Kind: KindPot, Hall: "hall1", Action: ActionCreate},
		},
		{
			name:    "pot add",
			topic:   "paintmix/command/pot/hall2/add",
			payload: `{"pot":"Pot 1","ingredient":"Red pigment"}`,
			want:    Command{Kind: KindPot, Hall: "hall2", Action: ActionAdd, Pot: "Pot 1", Ingredient: "Red pigment"},
		},
		{
			name:    "machine create",
			topic:   "paintmix/command/machine/hall1/create",
			payload: `{"speed":100,"time":30}`,
			want:    Command{Kind: KindMachine, Hall: "hall1", Action: ActionCreate, Speed: 100, Time: 30},
		},
		{
			name:    "machine assign",
			topic:   "paintmix/command/machine/hall1/assign",
			payload: `{"machine":"m-1","pot":"Pot 2"}`,
			want:    Command{Kind: KindMachine, Hall: "hall1", Action: ActionAssign, Machine: "m-1", Pot: "Pot 2"},
		},
		{name: "pot add missing ingredient", topic: "paintmix/command/pot/hall1/add", payload: `{"pot":"Pot 1"}`, wantErr: true},
		{name: "machine create zero speed", topic: "paintmix/command/machine/hall1/create", payload: `{"time":30}`, wantErr: true},
		{name: "release missing machine", topic: "paintmix/command/machine/hall1/release", payload: `{}`, wantErr: true},
		{name: "unknown action", topic: "paintmix/command/pot/hall1/paint", payload: `{}`, wantErr: true},
		{name: "bad topic", topic: "paintmix/command/pot", payload: `{}`, wantErr: true},
		{name: "bad json", topic: "paintmix/command/pot/hall1/create", payload: `{nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.topic, []byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cmd)
		})
	}
}

func TestParseIngredient(t *testing.T) {
	ing, err := ParseIngredient([]byte(`{"name":"Coral","mix_time":20,"mix_speed":90,"color":"rgb(255, 127, 80)","texture":"smooth"}`))
	require.NoError(t, err)
	assert.Equal(t, paint.Ingredient{
		Name:       "Coral",
		MixSeconds: 20,
		MixSpeed:   90,
		Color:      color.RGB{R: 255, G: 127, B: 80},
		Texture:    paint.TextureSmooth,
	}, ing)

	_, err = ParseIngredient([]byte(`{"name":"Coral","color":"coral"}`))
	assert.ErrorIs(t, err, color.ErrFormat)

	_, err = ParseIngredient([]byte(`[]`))
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestParseWeather(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    weather.Reading
		wantErr bool
	}{
		{name: "flat", payload: `{"temperature":4.6,"condition":"rain"}`, want: weather.Reading{TemperatureC: 5, Condition: weather.ConditionRain}},
		{name: "negative", payload: `{"temperature":-2.4,"condition":"Snow"}`, want: weather.Reading{TemperatureC: -2, Condition: weather.ConditionSnow}},
		{
			name:    "openweathermap",
			payload: `{"main":{"temp":36.2},"weather":[{"main":"Clear","description":"clear sky"}],"name":"Amsterdam"}`,
			want:    weather.Reading{TemperatureC: 36, Condition: weather.ConditionClear},
		},
		{name: "zero degrees is a reading", payload: `{"temperature":0,"condition":"Clouds"}`, want: weather.Reading{TemperatureC: 0, Condition: "Clouds"}},
		{name: "no temperature", payload: `{"condition":"Rain"}`, wantErr: true},
		{name: "bad json", payload: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeather([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

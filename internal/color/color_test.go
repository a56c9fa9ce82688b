package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRGB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{name: "css rgb", input: "rgb(255, 0, 0)", want: RGB{255, 0, 0}},
		{name: "no spaces", input: "rgb(12,34,56)", want: RGB{12, 34, 56}},
		{name: "extra tokens ignored", input: "rgba(1, 2, 3, 4)", want: RGB{1, 2, 3}},
		{name: "bare numbers", input: "10 20 30", want: RGB{10, 20, 30}},
		{name: "two tokens", input: "rgb(1, 2)", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "channel above 255", input: "rgb(256, 0, 0)", wantErr: true},
		{name: "negative channel", input: "rgb(-5, 10, 10)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRGB(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#0000FF")
	require.NoError(t, err)
	assert.Equal(t, RGB{0, 0, 255}, got)

	got, err = ParseColor("hsl(120, 100%, 50%)")
	require.NoError(t, err)
	assert.Equal(t, RGB{0, 255, 0}, got)

	got, err = ParseColor(" rgb(255, 255, 0) ")
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 255, 0}, got)

	got, err = ParseColor("hsl(-30, 100%, 50%)")
	require.NoError(t, err)
	want, err := ParseColor("hsl(330, 100%, 50%)")
	require.NoError(t, err)
	assert.Equal(t, want, got, "negative hue wraps")
	assert.Equal(t, RGB{255, 0, 128}, got)

	for _, bad := range []string{"#zzzzzz", "hsl(10, 20%)", "hsl(10, 120%, 50%)", "hsl(10, -20%, 50%)", "red"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrFormat, bad)
	}
}

func TestRGBToHSL(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want HSL
	}{
		{"red", RGB{255, 0, 0}, HSL{0, 100, 50}},
		{"green", RGB{0, 255, 0}, HSL{120, 100, 50}},
		{"blue", RGB{0, 0, 255}, HSL{240, 100, 50}},
		{"white", RGB{255, 255, 255}, HSL{0, 0, 100}},
		{"black", RGB{0, 0, 0}, HSL{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSL(tt.in.R, tt.in.G, tt.in.B)
			assert.InDelta(t, tt.want.H, got.H, 1e-9)
			assert.InDelta(t, tt.want.S, got.S, 1e-9)
			assert.InDelta(t, tt.want.L, got.L, 1e-9)
		})
	}
}

func TestRGBToHSLAchromaticIsExactlyZero(t *testing.T) {
	for v := 0; v <= 255; v += 17 {
		got := RGBToHSL(uint8(v), uint8(v), uint8(v))
		assert.Equal(t, 0.0, got.H)
		assert.Equal(t, 0.0, got.S)
	}
}

func TestRGBHSLRoundTripWithinOne(t *testing.T) {
	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				in := RGB{uint8(r), uint8(g), uint8(b)}
				hsl := in.HSL()

				require.GreaterOrEqual(t, hsl.H, 0.0)
				require.Less(t, hsl.H, 360.0)
				require.GreaterOrEqual(t, hsl.S, 0.0)
				require.LessOrEqual(t, hsl.S, 100.0)
				require.GreaterOrEqual(t, hsl.L, 0.0)
				require.LessOrEqual(t, hsl.L, 100.0)

				out := hsl.RGB()
				assert.InDelta(t, int(in.R), int(out.R), 1, "%v -> %v -> %v", in, hsl, out)
				assert.InDelta(t, int(in.G), int(out.G), 1, "%v -> %v -> %v", in, hsl, out)
				assert.InDelta(t, int(in.B), int(out.B), 1, "%v -> %v -> %v", in, hsl, out)
			}
		}
	}
}

func TestTriadic(t *testing.T) {
	base := HSL{H: 300, S: 40, L: 60}
	companions := Triadic(base)

	assert.Equal(t, HSL{H: 60, S: 40, L: 60}, companions[0])
	assert.Equal(t, HSL{H: 180, S: 40, L: 60}, companions[1])
}

func TestTriadicFullTurnReturnsToStart(t *testing.T) {
	for _, h := range []float64{0, 45.5, 119.75, 200.25, 359.5} {
		base := HSL{H: h, S: 55, L: 45}
		second := Triadic(base)[1]
		back := Triadic(second)[0]
		assert.Equal(t, base, back, "hue %v", h)
	}
}

func TestAverageRGB(t *testing.T) {
	got, err := AverageRGB([]RGB{{255, 0, 0}, {0, 0, 255}})
	require.NoError(t, err)
	assert.Equal(t, RGB{128, 0, 128}, got)

	got, err = AverageRGB([]RGB{{255, 0, 0}, {0, 0, 255}, {255, 255, 0}})
	require.NoError(t, err)
	assert.Equal(t, RGB{170, 85, 85}, got)

	got, err = AverageRGB([]RGB{{7, 8, 9}})
	require.NoError(t, err)
	assert.Equal(t, RGB{7, 8, 9}, got)
}

func TestAverageRGBEmpty(t *testing.T) {
	_, err := AverageRGB(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAverageRGBPermutationInvariant(t *testing.T) {
	colors := []RGB{{10, 200, 33}, {255, 1, 90}, {0, 77, 254}}
	want, err := AverageRGB(colors)
	require.NoError(t, err)

	perms := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		got, err := AverageRGB([]RGB{colors[p[0]], colors[p[1]], colors[p[2]]})
		require.NoError(t, err)
		assert.Equal(t, want, got, "permutation %v", p)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "rgb(128, 0, 128)", RGB{128, 0, 128}.String())
	assert.Equal(t, "#800080", RGB{128, 0, 128}.Hex())
	assert.Equal(t, "hsl(120, 50%, 25.5%)", HSL{H: 120, S: 50, L: 25.5}.String())
}

func TestRGBTextEncoding(t *testing.T) {
	text, err := RGB{1, 2, 3}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rgb(1, 2, 3)", string(text))

	var c RGB
	require.NoError(t, c.UnmarshalText([]byte("#ff8000")))
	assert.Equal(t, RGB{255, 128, 0}, c)

	assert.ErrorIs(t, c.UnmarshalText([]byte("nope")), ErrFormat)
}

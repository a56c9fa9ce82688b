// Package color implements the color math used by the mixing facility:
// parsing, RGB/HSL conversion, triadic companions and RGB averaging.
package color

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrFormat is returned for color text that cannot be read as a color
	ErrFormat = errors.New("malformed color")

	// ErrEmptyInput is returned when averaging an empty color list
	ErrEmptyInput = errors.New("no colors to average")
)

var (
	intToken    = regexp.MustCompile(`-?\d+`)
	numberToken = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// RGB is an immutable 8-bit-per-channel color
type RGB struct {
	R, G, B uint8
}

// HSL holds hue in degrees [0,360) and saturation/lightness as percentages [0,100]
type HSL struct {
	H, S, L float64
}

// String formats the color the way ingredient colors are written, e.g. "rgb(255, 0, 0)"
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex formats the color as #rrggbb
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

// HSL converts the color to HSL
func (c RGB) HSL() HSL {
	return RGBToHSL(c.R, c.G, c.B)
}

// MarshalText encodes the color in its rgb(...) form
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything ParseColor does
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// String formats the color as "hsl(h, s%, l%)"
func (h HSL) String() string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", trimFloat(h.H), trimFloat(h.S), trimFloat(h.L))
}

// RGB converts the color back to RGB
func (h HSL) RGB() RGB {
	return HSLToRGB(h)
}

// ParseRGB extracts the first three integer tokens of text as r, g, b.
// Tokens after the third are ignored.
func ParseRGB(text string) (RGB, error) {
	tokens := intToken.FindAllString(text, -1)
	if len(tokens) < 3 {
		return RGB{}, fmt.Errorf("%w: %q has %d numeric components, need 3", ErrFormat, text, len(tokens))
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(tokens[i])
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("%w: %q component %d out of range", ErrFormat, text, i+1)
		}
		channels[i] = uint8(v)
	}

	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// ParseColor reads rgb(...), hsl(...) and #rrggbb notations
func ParseColor(text string) (RGB, error) {
	s := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q: %v", ErrFormat, text, err)
		}
		r, g, b := c.RGB255()
		return RGB{R: r, G: g, B: b}, nil

	case strings.HasPrefix(s, "hsl"):
		tokens := numberToken.FindAllString(s, -1)
		if len(tokens) < 3 {
			return RGB{}, fmt.Errorf("%w: %q has %d numeric components, need 3", ErrFormat, text, len(tokens))
		}
		var v [3]float64
		for i := range v {
			f, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				return RGB{}, fmt.Errorf("%w: %q: %v", ErrFormat, text, err)
			}
			v[i] = f
		}
		if v[1] < 0 || v[1] > 100 || v[2] < 0 || v[2] > 100 {
			return RGB{}, fmt.Errorf("%w: %q saturation and lightness must be within 0-100", ErrFormat, text)
		}
		return HSLToRGB(HSL{H: math.Mod(v[0], 360), S: v[1], L: v[2]}), nil

	default:
		return ParseRGB(s)
	}
}

// RGBToHSL converts 8-bit RGB to HSL. Grays (r == g == b) have hue and
// saturation exactly 0.
func RGBToHSL(r, g, b uint8) HSL {
	if r == g && g == b {
		return HSL{H: 0, S: 0, L: float64(r) / 255 * 100}
	}

	h, s, l := RGB{R: r, G: g, B: b}.colorful().Hsl()
	if h >= 360 {
		h -= 360
	}

	return HSL{H: h, S: s * 100, L: l * 100}
}

// HSLToRGB converts HSL back to 8-bit RGB, rounding each channel
func HSLToRGB(c HSL) RGB {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsl(h, clampPercent(c.S)/100, clampPercent(c.L)/100).Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Triadic returns the two companions of c at +120 and +240 degrees.
// Saturation and lightness are carried over unchanged.
func Triadic(c HSL) [2]HSL {
	return [2]HSL{
		{H: RotateHue(c.H, 120), S: c.S, L: c.L},
		{H: RotateHue(c.H, 240), S: c.S, L: c.L},
	}
}

// RotateHue adds degrees to hue and wraps the result into [0,360)
func RotateHue(hue, degrees float64) float64 {
	h := math.Mod(hue+degrees, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// AverageRGB returns the per-channel mean of colors. Channel sums are kept
// as integers and rounded once, half up, so input order never matters.
func AverageRGB(colors []RGB) (RGB, error) {
	if len(colors) == 0 {
		return RGB{}, ErrEmptyInput
	}

	var sumR, sumG, sumB int
	for _, c := range colors {
		sumR += int(c.R)
		sumG += int(c.G)
		sumB += int(c.B)
	}

	n := len(colors)
	return RGB{
		R: uint8(roundedMean(sumR, n)),
		G: uint8(roundedMean(sumG, n)),
		B: uint8(roundedMean(sumB, n)),
	}, nil
}

// roundedMean computes round(sum/n) with halves rounded up, for sum >= 0
func roundedMean(sum, n int) int {
	return (2*sum + n) / (2 * n)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package weather turns weather readings into facility effects: longer
// mixing times in cold or wet weather and a machine cap in extreme heat.
package weather

import "strings"

// Condition is the main weather condition reported by the feed
type Condition string

const (
	ConditionClear Condition = "Clear"
	ConditionRain  Condition = "Rain"
	ConditionSnow  Condition = "Snow"
)

// Thresholds and factors. Factors are in basis points (10000 = 1.0) so
// compounding and rounding stay exact.
const (
	ColdThresholdC = 10
	HotThresholdC  = 35

	MaxMachinesPerHall     = 5
	HotWeatherMachineLimit = 1

	basisPoints       = 10000
	wetFactorBP       = 11000 // +10% mixing time in rain or snow
	coldFactorBP      = 11500 // +15% mixing time below ColdThresholdC
	wetFactorPercent  = 10
	coldFactorPercent = 15
)

// Reading is a single weather observation
type Reading struct {
	TemperatureC int       `json:"temperature"`
	Condition    Condition `json:"condition"`
}

// IsWet reports rain or snow
func (r Reading) IsWet() bool {
	return r.Condition == ConditionRain || r.Condition == ConditionSnow
}

// IsCold reports a temperature below ColdThresholdC
func (r Reading) IsCold() bool {
	return r.TemperatureC < ColdThresholdC
}

// IsHot reports a temperature above HotThresholdC
func (r Reading) IsHot() bool {
	return r.TemperatureC > HotThresholdC
}

// NormalizeCondition maps feed spellings ("rain", "SNOW") onto the known
// conditions; anything else passes through unchanged.
func NormalizeCondition(s string) Condition {
	for _, c := range []Condition{ConditionClear, ConditionRain, ConditionSnow} {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return Condition(s)
}

// modifierBP compounds every active factor, in basis points
func modifierBP(r *Reading) int64 {
	mod := int64(basisPoints)
	if r == nil {
		return mod
	}
	if r.IsWet() {
		mod = mod * wetFactorBP / basisPoints
	}
	if r.IsCold() {
		mod = mod * coldFactorBP / basisPoints
	}
	return mod
}

// DurationModifier returns the multiplicative mixing-time factor for r.
// A nil reading has no effect.
func DurationModifier(r *Reading) float64 {
	return float64(modifierBP(r)) / basisPoints
}

// EffectiveDuration applies the compounded modifier to baseSeconds and
// rounds once, half up. Negative bases are treated as zero.
func EffectiveDuration(baseSeconds int, r *Reading) int {
	if baseSeconds <= 0 {
		return 0
	}
	scaled := int64(baseSeconds) * modifierBP(r)
	return int((scaled + basisPoints/2) / basisPoints)
}

// IsMachineCreationAllowed reports whether a hall that already has
// machineCount machines may get another one
func IsMachineCreationAllowed(r *Reading, machineCount int) bool {
	if r != nil && r.IsHot() {
		return machineCount < HotWeatherMachineLimit
	}
	return machineCount < MaxMachinesPerHall
}

// ActiveMachineLimit is the number of machines per hall that may run under r
func ActiveMachineLimit(r *Reading) int {
	if r != nil && r.IsHot() {
		return HotWeatherMachineLimit
	}
	return MaxMachinesPerHall
}

package weather

import "fmt"

// Effect describes one active weather rule for display
type Effect struct {
	Code    string `json:"code"`
	Text    string `json:"text"`
	Warning bool   `json:"warning"`
}

// Effects lists the rules r activates, in the order the weather panel shows them
func Effects(r *Reading) []Effect {
	if r == nil {
		return nil
	}

	var effects []Effect
	if r.IsWet() {
		effects = append(effects, Effect{
			Code: "wet",
			Text: fmt.Sprintf("Mixing time +%d%% (rain/snow)", wetFactorPercent),
		})
	}
	if r.IsCold() {
		effects = append(effects, Effect{
			Code: "cold",
			Text: fmt.Sprintf("Mixing time +%d%% (low temperature)", coldFactorPercent),
		})
	}
	if r.IsHot() {
		effects = append(effects, Effect{
			Code:    "hot",
			Text:    fmt.Sprintf("At most %d machine per hall (high temperature)", HotWeatherMachineLimit),
			Warning: true,
		})
	}
	return effects
}

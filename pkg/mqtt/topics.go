package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout:
//
//	paintmix/command/{kind}/{hall}/{action}   facility commands (input)
//	paintmix/raw/weather/{city}               weather feed (input)
//	paintmix/progress/{hall}/{machine}        mixing progress (output)
//	paintmix/result/{hall}                    finished mixes (output)
//	paintmix/rejected/{hall}                  refused commands (output)
//	paintmix/context/{kind}                   retained state (output)
const (
	TopicPrefix = "paintmix"

	TopicIngredientCreate = "paintmix/command/ingredient/create"
	TopicPotCommands      = "paintmix/command/pot/+/+"
	TopicMachineCommands  = "paintmix/command/machine/+/+"
	TopicReset            = "paintmix/command/reset"
	TopicRawWeather       = "paintmix/raw/weather/+"
	TopicTimeConfig       = "paintmix/test/time_config"

	TopicWeatherContext  = "paintmix/context/weather"
	TopicFacilityContext = "paintmix/context/facility"
	TopicCatalogContext  = "paintmix/context/catalog"
)

// RawWeatherTopic is the weather feed topic for a city
func RawWeatherTopic(city string) string {
	return fmt.Sprintf("paintmix/raw/weather/%s", strings.ToLower(city))
}

// CommandTopic builds paintmix/command/{kind}/{hall}/{action}
func CommandTopic(kind, hall, action string) string {
	return fmt.Sprintf("paintmix/command/%s/%s/%s", kind, hall, action)
}

// ProgressTopic builds paintmix/progress/{hall}/{machine}
func ProgressTopic(hall, machine string) string {
	return fmt.Sprintf("paintmix/progress/%s/%s", hall, machine)
}

// ResultTopic builds paintmix/result/{hall}
func ResultTopic(hall string) string {
	return fmt.Sprintf("paintmix/result/%s", hall)
}

// RejectedTopic builds paintmix/rejected/{hall}
func RejectedTopic(hall string) string {
	return fmt.Sprintf("paintmix/rejected/%s", hall)
}

// ServiceStatusTopic builds paintmix/status/{service}
func ServiceStatusTopic(service string) string {
	return fmt.Sprintf("paintmix/status/%s", service)
}

// ParseCommandTopic splits paintmix/command/{kind}/{hall}/{action}
func ParseCommandTopic(topic string) (kind, hall, action string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != "command" {
		return "", "", "", fmt.Errorf("invalid command topic: %s", topic)
	}
	return parts[2], parts[3], parts[4], nil
}

// TopicMatches reports whether topic matches a subscription filter with
// + and # wildcards
func TopicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, part := range fp {
		if part == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if part != "+" && part != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

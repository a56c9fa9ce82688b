package checker

import (
	"fmt"

	"github.com/saaga0h/paintmix-platform/e2e/internal/observer"
	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
	"github.com/saaga0h/paintmix-platform/pkg/mqtt"
)

// CheckExpectation validates an expectation against captured MQTT messages.
// Any matching message passes; the reason for a failure is taken from the
// most recent message on the topic.
func CheckExpectation(exp scenario.Expectation, messages []observer.CapturedMessage) (bool, string, interface{}) {
	var matching []observer.CapturedMessage
	for _, msg := range messages {
		if mqtt.TopicMatches(exp.Topic, msg.Topic) {
			matching = append(matching, msg)
		}
	}

	if len(matching) == 0 {
		return false, fmt.Sprintf("no messages found for topic %q", exp.Topic), nil
	}

	latest := matching[len(matching)-1]
	if len(exp.Payload) == 0 {
		return true, "", latest.Payload
	}

	for i := len(matching) - 1; i >= 0; i-- {
		if ok, _ := MatchesExpectation(matching[i].Payload, exp.Payload); ok {
			return true, "", matching[i].Payload
		}
	}

	_, reason := MatchesExpectation(latest.Payload, exp.Payload)
	return false, fmt.Sprintf("%d message(s) on %s, none matched; latest: %s", len(matching), exp.Topic, reason), latest.Payload
}

package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
)

// TimelineEvent is a single line of the run timeline
type TimelineEvent struct {
	Elapsed     float64
	Layer       string
	Description string
	Success     bool // only meaningful when IsCheck
	IsCheck     bool
}

// GenerateTimeline renders a human-readable report of a run
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Scenario: %s ===\n", result.Scenario.Name)
	fmt.Fprintf(&sb, "Duration: %s\n\n", formatDuration(result.EndTime.Sub(result.StartTime)))

	for _, e := range events {
		icon := "→"
		if e.IsCheck {
			icon = "✓"
			if !e.Success {
				icon = "✗"
			}
		}
		fmt.Fprintf(&sb, "[%7.2fs] %s %-10s: %s\n", e.Elapsed, icon, e.Layer, e.Description)
	}

	var failed []scenario.ExpectationResult
	for _, r := range result.Expectations {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\n=== Failures ===\n")
		for _, r := range failed {
			fmt.Fprintf(&sb, "  ✗ [%s] %s: %s\n", r.Layer, r.Expectation.Target(), r.Reason)
		}
	}

	status := "ALL EXPECTATIONS PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("%d EXPECTATION(S) FAILED", result.FailedCount)
	}
	fmt.Fprintf(&sb, "\nPassed: %d  Failed: %d  %s\n", result.PassedCount, result.FailedCount, status)

	return sb.String()
}

func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds / 60)
	return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes*60))
}

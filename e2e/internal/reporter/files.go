package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/saaga0h/paintmix-platform/e2e/internal/scenario"
)

// SaveTimeline saves a timeline report to a file
func SaveTimeline(content string, filename string) error {
	return writeFile(filename, []byte(content))
}

// SaveSummary saves a JSON summary of a run
func SaveSummary(result *scenario.TestResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return writeFile(filename, data)
}

func writeFile(filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

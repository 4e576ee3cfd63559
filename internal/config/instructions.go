package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed instructions.md
var defaultInstructions string

// DefaultInstructions returns the built-in assistant instruction text
func DefaultInstructions() string {
	return defaultInstructions
}

// LoadInstructions returns the instruction text the assistant is created with.
// The text is sent to the service as-is; it is never interpreted locally.
func LoadInstructions(cfg Config) (string, error) {
	if cfg.InstructionsFile == "" {
		return defaultInstructions, nil
	}

	data, err := os.ReadFile(cfg.InstructionsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read instructions file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("instructions file %s is empty", cfg.InstructionsFile)
	}

	return text, nil
}

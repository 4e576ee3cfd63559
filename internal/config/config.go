// Package config handles settings, secrets and assistant instructions for readalong.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diogo/readalong/internal/models"
)

// HomeEnv overrides the configuration directory (mainly for tests and CI)
const HomeEnv = "READALONG_HOME"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// DefaultModel is the model (Azure deployment) the assistant is created with
	DefaultModel string `json:"default_model"`
	APIVersion   string `json:"api_version"`
	// AssistantID reuses an existing assistant definition instead of creating
	// a fresh one on every start.
	AssistantID      string `json:"assistant_id,omitempty"`
	InstructionsFile string `json:"instructions_file,omitempty"`

	PollIntervalMs        int `json:"poll_interval_ms"`
	PollTimeoutSeconds    int `json:"poll_timeout_seconds"` // 0 waits forever
	MaxRetries            int `json:"max_retries"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// DeleteThreadOnExit removes the remote thread when a session ends
	DeleteThreadOnExit bool `json:"delete_thread_on_exit"`

	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	ServerAddr      string         `json:"server_addr,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// PollInterval returns the fixed wait between run status checks
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return models.DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// PollTimeout returns the bound on a single run wait; zero means unbounded
func (c Config) PollTimeout() time.Duration {
	if c.PollTimeoutSeconds < 0 {
		return 0
	}
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout for service calls
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:          models.DefaultModel,
		APIVersion:            models.DefaultAPIVersion,
		PollIntervalMs:        int(models.DefaultPollInterval / time.Millisecond),
		PollTimeoutSeconds:    int(models.DefaultPollTimeout / time.Second),
		MaxRetries:            2,
		RequestTimeoutSeconds: 60,
		DeleteThreadOnExit:    false,
		Verbose:               false,
		CopyToClipboard:       false,
		TUITheme:              "tokyonight",
		ServerAddr:            "127.0.0.1:8501",
		Markdown:              DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".readalong"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path of the log file used by the terminal chat
func GetLogPath() (string, error) {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "readalong.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AvailableModels returns a list of suggested model names
func AvailableModels() []string {
	all := models.AllModels()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

// Package config handles configuration loading for the transcript tools.
// It supports JSON config files, environment variables, and sensible defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// DefaultPhases is the phase list used when none is configured.
var DefaultPhases = []string{"research", "planning", "review", "supporting-1", "supporting-2"}

// DefaultListenAddr is where the HTTP API listens by default.
const DefaultListenAddr = "127.0.0.1:8080"

// Config holds the configuration for the transcript tools.
type Config struct {
	DataDir    string     `json:"data_dir"`    // default: <cwd>/data
	StateDir   string     `json:"state_dir"`   // default: ~/.local/state/agent-transcripts
	Phases     []string   `json:"phases"`      // default: DefaultPhases
	ListenAddr string     `json:"listen_addr"` // default: DefaultListenAddr
	DebugLevel int        `json:"debug_level"` // 0-3, from TRANSCRIPTS_DEBUG
	Classifier Classifier `json:"classifier"`
}

// Classifier tunes the assistant narration heuristic.
type Classifier struct {
	MaxLength int      `json:"max_length"`
	Keywords  []string `json:"keywords"`
}

// Build compiles the classifier settings.
func (c Classifier) Build() (*transcript.Classifier, error) {
	return transcript.NewClassifier(c.MaxLength, c.Keywords)
}

// Load reads configuration from the given JSON file path,
// applies defaults for missing values, and overrides with environment variables.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}
	// If file doesn't exist, that's fine - we'll use defaults

	applyDefaults(cfg)

	// Env vars take highest precedence
	applyEnvOverrides(cfg)

	if cfg.DebugLevel < 0 {
		cfg.DebugLevel = 0
	}
	if cfg.DebugLevel > 3 {
		cfg.DebugLevel = 3
	}

	if _, err := cfg.Classifier.Build(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultPath returns ~/.config/agent-transcripts/config.json.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "agent-transcripts", "config.json")
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	if cfg.DataDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DataDir = filepath.Join(cwd, "data")
		} else {
			cfg.DataDir = "data"
		}
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(homeDir, ".local", "state", "agent-transcripts")
	}
	if len(cfg.Phases) == 0 {
		cfg.Phases = append([]string(nil), DefaultPhases...)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Classifier.MaxLength <= 0 {
		cfg.Classifier.MaxLength = transcript.DefaultMaxLength
	}
	if cfg.Classifier.Keywords == nil {
		cfg.Classifier.Keywords = transcript.DefaultKeywords()
	}
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("TRANSCRIPTS_DATA_DIR"); val != "" {
		cfg.DataDir = val
	}

	if val := os.Getenv("TRANSCRIPTS_STATE"); val != "" {
		cfg.StateDir = val
	}

	if val := os.Getenv("TRANSCRIPTS_PHASES"); val != "" {
		if phases := splitList(val); len(phases) > 0 {
			cfg.Phases = phases
		}
	}

	if val := os.Getenv("TRANSCRIPTS_ADDR"); val != "" {
		cfg.ListenAddr = val
	}

	// Debug level: TRANSCRIPTS_DEBUG > DEBUG
	if val := os.Getenv("TRANSCRIPTS_DEBUG"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			cfg.DebugLevel = level
		}
	} else if val := os.Getenv("DEBUG"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			cfg.DebugLevel = level
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

var envVars = []string{
	"TRANSCRIPTS_DATA_DIR", "TRANSCRIPTS_STATE", "TRANSCRIPTS_PHASES",
	"TRANSCRIPTS_ADDR", "TRANSCRIPTS_DEBUG", "DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeConfig(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func Test_LoadConfig_MissingFile_ReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()

	require.Equal(t, filepath.Join(cwd, "data"), cfg.DataDir)
	require.Equal(t, filepath.Join(homeDir, ".local", "state", "agent-transcripts"), cfg.StateDir)
	require.Equal(t, DefaultPhases, cfg.Phases)
	require.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	require.Zero(t, cfg.DebugLevel)
	require.Equal(t, transcript.DefaultMaxLength, cfg.Classifier.MaxLength)
	require.Equal(t, transcript.DefaultKeywords(), cfg.Classifier.Keywords)
}

func Test_LoadConfig_ValidFile_ReturnsValues(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{
		"data_dir":    "/custom/data",
		"state_dir":   "/custom/state",
		"phases":      []string{"alpha", "beta"},
		"listen_addr": ":9000",
		"debug_level": 2,
		"classifier":  map[string]any{"max_length": 200, "keywords": []string{"deploy"}},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/custom/data", cfg.DataDir)
	require.Equal(t, "/custom/state", cfg.StateDir)
	require.Equal(t, []string{"alpha", "beta"}, cfg.Phases)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, 2, cfg.DebugLevel)
	require.Equal(t, 200, cfg.Classifier.MaxLength)
	require.Equal(t, []string{"deploy"}, cfg.Classifier.Keywords)

	c, err := cfg.Classifier.Build()
	require.NoError(t, err)
	require.Equal(t, 200, c.MaxLength())
	require.True(t, c.IsMeta("ready to deploy"))
	require.False(t, c.IsMeta("spawning agents"))
}

func Test_LoadConfig_EmptyKeywordListDisablesKeywords(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{"classifier": map[string]any{"keywords": []string{}}})
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Classifier.Keywords)

	c, err := cfg.Classifier.Build()
	require.NoError(t, err)
	require.False(t, c.IsMeta("spawning agents"))
}

func Test_LoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{
		"data_dir":    "/file/data",
		"state_dir":   "/file/state",
		"phases":      []string{"file"},
		"listen_addr": ":1",
		"debug_level": 1,
	})

	t.Setenv("TRANSCRIPTS_DATA_DIR", "/env/data")
	t.Setenv("TRANSCRIPTS_STATE", "/env/state")
	t.Setenv("TRANSCRIPTS_PHASES", " research, , review ")
	t.Setenv("TRANSCRIPTS_ADDR", ":2")
	t.Setenv("TRANSCRIPTS_DEBUG", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/env/data", cfg.DataDir)
	require.Equal(t, "/env/state", cfg.StateDir)
	require.Equal(t, []string{"research", "review"}, cfg.Phases)
	require.Equal(t, ":2", cfg.ListenAddr)
	require.Equal(t, 3, cfg.DebugLevel)
}

func Test_LoadConfig_DebugFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "2")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.DebugLevel)

	// TRANSCRIPTS_DEBUG takes precedence
	t.Setenv("TRANSCRIPTS_DEBUG", "1")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, 1, cfg.DebugLevel)
}

func Test_LoadConfig_InvalidJSON_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("not valid json{"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func Test_LoadConfig_InvalidKeyword_ReturnsError(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, map[string]any{"classifier": map[string]any{"keywords": []string{"(broken"}}})
	_, err := Load(path)
	require.Error(t, err)
}

func Test_LoadConfig_DebugLevelClamped(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist.json")

	t.Setenv("TRANSCRIPTS_DEBUG", "5")
	cfg, err := Load(missing)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.DebugLevel)

	t.Setenv("TRANSCRIPTS_DEBUG", "-1")
	cfg, err = Load(missing)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.DebugLevel)
}

func Test_LoadConfig_DefaultPhasesNotShared(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	cfg.Phases[0] = "mutated"

	require.Equal(t, "research", DefaultPhases[0])
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ctrl+alt+r", cfg.Hotkey)
	assert.Equal(t, time.Second, cfg.DebounceInterval)
	assert.Equal(t, 3, cfg.Clipboard.PollAttempts)
	assert.Equal(t, 150*time.Millisecond, cfg.Clipboard.PollInterval)
	assert.Equal(t, "rephrase-app", cfg.KeyringService)
}

func TestLoadAppliesEnv(t *testing.T) {
	t.Setenv("REPHRASE_PROVIDER", "Gemini")
	t.Setenv("REPHRASE_HOTKEY", "ctrl+shift+e")
	t.Setenv("REPHRASE_POLL_INTERVAL", "200ms")
	t.Setenv("REPHRASE_IGNORE_SIMULATED_INPUT", "WindowsTerminal.exe;mintty.exe")
	t.Setenv("REPHRASE_PREFERENCES", "~/prefs.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "ctrl+shift+e", cfg.Hotkey)
	assert.Equal(t, 200*time.Millisecond, cfg.Clipboard.PollInterval)
	assert.Equal(t, []string{"WindowsTerminal.exe", "mintty.exe"}, cfg.Clipboard.IgnoreSimulatedInput)
	assert.NotContains(t, cfg.PreferencesPath, "~")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Provider = "claude"
	cfg.RequestTimeout = 0
	cfg.Clipboard.PollAttempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
	assert.Contains(t, err.Error(), "request timeout")
	assert.Contains(t, err.Error(), "poll budget")
}

func TestParseListFlag(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseListFlag(" a ; ;b ", nil))
	assert.Nil(t, parseListFlag("", nil))
	assert.Equal(t, []string{"x"}, parseListFlag(" ; ", []string{"x"}))
}

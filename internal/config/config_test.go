package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2kai2kai2/cartographer/internal/savegame"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKER_COUNT", "12")
	t.Setenv("CACHE_SIZE", "not-a-number")
	t.Setenv("RESOURCE_BASE_URL", "https://cdn.example.com/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, 12, cfg.WorkerCount)
	assert.Equal(t, 32, cfg.CacheSize)
	assert.Equal(t, "https://cdn.example.com/", cfg.ResourceBaseURL)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	assert.Equal(t, zerolog.InfoLevel, Load().LogLevel)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTagEdits(t *testing.T) {
	path := writeFile(t, `
remove: [SWE]
set:
  - tag: DAN
    player: alice
  - {tag: NOR, player: bob}
`)
	edits, err := LoadTagEdits(path)
	require.NoError(t, err)
	assert.Equal(t, savegame.TagEdits{
		Remove: []string{"SWE"},
		Set: []savegame.TagAssignment{
			{Tag: "DAN", Player: "alice"},
			{Tag: "NOR", Player: "bob"},
		},
	}, edits)
}

func TestLoadTagEditsErrors(t *testing.T) {
	_, err := LoadTagEdits(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadTagEdits(writeFile(t, "set: [{tag: DAN}]"))
	assert.ErrorContains(t, err, "needs both tag and player")

	_, err = LoadTagEdits(writeFile(t, "set: {oops"))
	assert.Error(t, err)
}

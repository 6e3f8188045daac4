package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOIREE_TEST_PORT=4100\n"), 0o600))
	t.Setenv("SOIREE_TEST_PORT", "stale")
	os.Unsetenv("SOIREE_TEST_PORT") // godotenv only fills unset keys

	require.NoError(t, Load(envFile))
	assert.Equal(t, "4100", Get("SOIREE_TEST_PORT", "3000"))
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.env")))
}

func TestGetFallback(t *testing.T) {
	t.Setenv("SOIREE_TEST_SET", "value")
	t.Setenv("SOIREE_TEST_EMPTY", "")

	assert.Equal(t, "value", Get("SOIREE_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", Get("SOIREE_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", Get("SOIREE_TEST_UNSET", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("SOIREE_TEST_INT", "42")
	t.Setenv("SOIREE_TEST_BAD", "forty-two")

	assert.Equal(t, 42, GetInt("SOIREE_TEST_INT", 7))
	assert.Equal(t, 7, GetInt("SOIREE_TEST_BAD", 7))
	assert.Equal(t, 7, GetInt("SOIREE_TEST_MISSING", 7))
}

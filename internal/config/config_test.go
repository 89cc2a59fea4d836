package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("RHEEDVIEW_TEST_STR", "hello")

	assert.Equal(t, "hello", GetEnv("RHEEDVIEW_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("RHEEDVIEW_TEST_UNSET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("RHEEDVIEW_TEST_INT", "42")
	t.Setenv("RHEEDVIEW_TEST_BADINT", "nope")

	assert.Equal(t, 42, GetEnvInt("RHEEDVIEW_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("RHEEDVIEW_TEST_BADINT", 7))
	assert.Equal(t, 7, GetEnvInt("RHEEDVIEW_TEST_UNSET", 7))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("RHEEDVIEW_TEST_FLOAT", "29.97")

	assert.Equal(t, 29.97, GetEnvFloat("RHEEDVIEW_TEST_FLOAT", 30))
	assert.Equal(t, 30.0, GetEnvFloat("RHEEDVIEW_TEST_UNSET", 30))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("RHEEDVIEW_TEST_BOOL", "true")
	t.Setenv("RHEEDVIEW_TEST_BADBOOL", "yeah")

	assert.True(t, GetEnvBool("RHEEDVIEW_TEST_BOOL", false))
	assert.False(t, GetEnvBool("RHEEDVIEW_TEST_BADBOOL", false))
	assert.True(t, GetEnvBool("RHEEDVIEW_TEST_UNSET", true))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RHEEDVIEW_TEST_FROMFILE=99\n"), 0o644))
	t.Setenv("RHEEDVIEW_TEST_FROMFILE", "") // Restore after the test
	os.Unsetenv("RHEEDVIEW_TEST_FROMFILE")

	require.NoError(t, Load(path))
	assert.Equal(t, 99, GetEnvInt("RHEEDVIEW_TEST_FROMFILE", 0))
}

func TestLoadMissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.env")))
}

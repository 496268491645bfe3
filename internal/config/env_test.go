package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `
# Comment line
HK_ENV_ONE=value1
export HK_ENV_TWO = "quoted value"
HK_ENV_THREE='single'
not a pair
HK_ENV_SET=from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	for _, k := range []string{"HK_ENV_ONE", "HK_ENV_TWO", "HK_ENV_THREE"} {
		key := k
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	t.Setenv("HK_ENV_SET", "from-process")

	require.NoError(t, LoadEnv(path))

	assert.Equal(t, "value1", os.Getenv("HK_ENV_ONE"))
	assert.Equal(t, "quoted value", os.Getenv("HK_ENV_TWO"))
	assert.Equal(t, "single", os.Getenv("HK_ENV_THREE"))
	assert.Equal(t, "from-process", os.Getenv("HK_ENV_SET"), "existing variables win")
}

func TestLoadEnvOptional(t *testing.T) {
	assert.NoError(t, LoadEnvOptional(filepath.Join(t.TempDir(), "missing.env")))
	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("HK_EXPAND_SET", "/data")
	os.Unsetenv("HK_EXPAND_UNSET")

	tests := []struct {
		in   string
		want string
	}{
		{"/plain/path", "/plain/path"},
		{"${HK_EXPAND_SET}", "/data"},
		{"${HK_EXPAND_SET}/uploads", "/data/uploads"},
		{"${HK_EXPAND_UNSET:/fallback}/x", "/fallback/x"},
		{"${HK_EXPAND_SET:/fallback}", "/data"},
		{"${HK_EXPAND_UNSET}", ""},
		{"${unterminated", "${unterminated"},
		{"$HK_EXPAND_SET", "$HK_EXPAND_SET"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestExpandPath_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tmp"), expandPath("~/tmp"))
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasend/internal/infra/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	assert.True(t, cfg.Passive)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.UploadCacheTTL)
	assert.Equal(t, filepath.Join(cfg.StorePath, "wasend.db"), cfg.DBPath())
}

func TestLoadFromFileFormats(t *testing.T) {
	files := map[string]string{
		"cfg.json": `{"login": "31600000000", "timeout_secs": 30, "passive": false, "upload_cache_days": 2}`,
		"cfg.toml": "login = \"31600000000\"\ntimeout_secs = 30\npassive = false\nupload_cache_days = 2\n",
		"cfg.yaml": "login: \"31600000000\"\ntimeout_secs: 30\npassive: false\nupload_cache_days: 2\n",
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.LoadFromFile(writeFile(t, name, body))
			require.NoError(t, err)
			assert.Equal(t, "31600000000", cfg.Login)
			assert.Equal(t, 30*time.Second, cfg.Timeout)
			assert.False(t, cfg.Passive)
			assert.Equal(t, 48*time.Hour, cfg.UploadCacheTTL)
			// Untouched fields keep their defaults.
			assert.Equal(t, "wasend", cfg.DeviceName)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := config.LoadFromFile(writeFile(t, "cfg.ini", "login=1"))
	assert.Error(t, err)

	_, err = config.LoadFromFile(writeFile(t, "cfg.json", "{"))
	assert.Error(t, err)

	cfg, err := config.LoadFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().LogLevel, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)
	path := writeFile(t, "cfg.json", `{"login": "1", "log_level": "INFO"}`)

	t.Setenv("WASEND_LOGIN", "31611111111")
	t.Setenv("WASEND_TIMEOUT", "5")
	t.Setenv("WASEND_PASSIVE", "0")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "31611111111", cfg.Login)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.Passive)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile(".env", []byte("WASEND_STORE_PATH=/var/lib/wasend\nWASEND_UPLOAD_CACHE_DAYS=0\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("WASEND_STORE_PATH")
		os.Unsetenv("WASEND_UPLOAD_CACHE_DAYS")
	})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/wasend", cfg.StorePath)
	assert.Zero(t, cfg.UploadCacheTTL)
}

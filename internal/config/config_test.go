package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"btcquote/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "https://api.coingecko.com/api/v3/simple/price", cfg.Coingecko.BaseURL)
	require.InEpsilon(t, 3.0, cfg.Coingecko.TimeoutSeconds, 0.0001)
	require.Equal(t, 2, cfg.Coingecko.RetryAttempts)
	require.InEpsilon(t, 0.3, cfg.Coingecko.RetryBackoffSeconds, 0.0001)
	require.InEpsilon(t, 30.0, cfg.Coingecko.CacheTTLSeconds, 0.0001)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "9090"},
		"coingecko": {"cache_ttl_sec": 60, "retry_attempts": 5}
	}`), 0o600))

	t.Setenv("CACHE_TTL_SEC", "120")
	t.Setenv("COINGECKO_BASE_URL", "http://localhost:9999/simple/price")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 5, cfg.Coingecko.RetryAttempts)
	// Env wins over the file.
	require.InEpsilon(t, 120.0, cfg.Coingecko.CacheTTLSeconds, 0.0001)
	require.Equal(t, "http://localhost:9999/simple/price", cfg.Coingecko.BaseURL)
}

func TestLoad_ClampsRetryAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"coingecko": {"retry_attempts": 0}}`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Coingecko.RetryAttempts)
}

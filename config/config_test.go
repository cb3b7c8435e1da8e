package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, zerolog.InfoLevel, cfg.Level())
	require.Equal(t, DefaultLTEPageSize, cfg.Runtime.LTEPageSize)
	require.Empty(t, cfg.HTTP.ListenAddr(""), "http stays off by default")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/emc
log_level: debug
ecfr:
  base_url: http://localhost:9000
  timeout: 5s
runtime:
  max_concurrent_requests: 4
http:
  addr: 127.0.0.1:9090
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/emc", cfg.DataDir)
	require.Equal(t, zerolog.DebugLevel, cfg.Level())
	require.Equal(t, "http://localhost:9000", cfg.ECFR.BaseURL)
	require.Equal(t, 5*time.Second, cfg.ECFR.Timeout)
	require.Equal(t, 4, cfg.Runtime.MaxConcurrentRequests)
	require.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	require.Equal(t, "127.0.0.1:9090", cfg.HTTP.ListenAddr(""))
	require.Equal(t, ":7000", cfg.HTTP.ListenAddr(":7000"))
	// untouched keys keep defaults
	require.Equal(t, DefaultOutputBudget, cfg.ECFR.MaxChars)
	require.Equal(t, DefaultMetricsPath, cfg.HTTP.MetricsPath)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"EMC_DATA_DIR":                "/data",
		"EMC_OFFLINE":                 "true",
		"EMC_MAX_CONCURRENT_REQUESTS": "3",
		"EMC_LOG_LEVEL":               "warn",
		"EMC_HTTP_ADDR":               ":9100",
	}))
	require.NoError(t, err)
	require.Equal(t, "/data", cfg.DataDir)
	require.True(t, cfg.Offline)
	require.Equal(t, 3, cfg.Runtime.MaxConcurrentRequests)
	require.Equal(t, zerolog.WarnLevel, cfg.Level())
	require.Equal(t, ":9100", cfg.HTTP.ListenAddr(""))

	err = cfg.ApplyEnv(envMap(map[string]string{"EMC_OFFLINE": "maybe"}))
	require.ErrorContains(t, err, "EMC_OFFLINE")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.ECFR.BaseURL = "ftp://ecfr"
	cfg.Runtime.MaxConcurrentRequests = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "log_level")
	require.Contains(t, err.Error(), "base_url")
	require.Contains(t, err.Error(), "max_concurrent_requests")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "config: read")
}

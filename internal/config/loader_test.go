package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
service:
  name: warelay-test
credentials:
  app_secret: s3cret
  verify_token: tok
`

func TestLoadMinimalConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "warelay-test", cfg.Service.Name)
	// Unset fields keep their defaults.
	require.Equal(t, "info", cfg.Service.LogLevel)
	require.Equal(t, "./data/warelay.db", cfg.Storage.Path)
	require.Equal(t, int64(1<<20), cfg.Ingress.MaxBodyBytes)
	require.Equal(t, 10*time.Minute, cfg.Escalation.Window)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.True(t, cfg.Platforms["whatsapp"].Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file not found")
}

func TestLoadEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_WARELAY_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, `
credentials:
  app_secret: ${TEST_WARELAY_SECRET}
  verify_token: tok
`))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Credentials.AppSecret)
}

func TestLoadSecretOverridesFile(t *testing.T) {
	t.Setenv("WARELAY_APP_SECRET", "env-wins")
	t.Setenv("WARELAY_VERIFY_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, `
credentials:
  app_secret: file-value
  verify_token: file-token
`))
	require.NoError(t, err)
	require.Equal(t, "env-wins", cfg.Credentials.AppSecret)
	require.Equal(t, "env-token", cfg.Credentials.VerifyToken)
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	_, err := Load(writeConfig(t, `
service:
  name: warelay
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "app_secret")
	require.Contains(t, err.Error(), "verify_token")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	_, err := Load(writeConfig(t, `
service:
  log_level: verbose
credentials:
  app_secret: s3cret
  verify_token: tok
`))
	require.Error(t, err)
}

func TestValidateRedisBackendNeedsAddr(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
cache:
  backend: redis
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis_addr")
}

func TestValidateOutboundNeedsCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
outbound:
  enabled: true
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "access_token")
	require.Contains(t, err.Error(), "phone_number_id")
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
service:
  name: warelay
  log_level: debug
  log_format: text
storage:
  path: /tmp/warelay/warelay.db
ingress:
  listen: ":9090"
  max_body_bytes: 2097152
  shutdown_timeout: 5s
credentials:
  app_secret: s
  verify_token: v
  access_token: a
  phone_number_id: "1064545"
escalation:
  window: 5m
  threshold: 3
  critical_codes: [131031, 131056]
cache:
  backend: file
  file_root: /tmp/warelay/cache
outbound:
  enabled: true
`))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Ingress.Listen)
	require.Equal(t, 5*time.Minute, cfg.Escalation.Window)
	require.Equal(t, []int{131031, 131056}, cfg.Escalation.CriticalCodes)
	require.Equal(t, "file", cfg.Cache.Backend)
	require.True(t, cfg.Outbound.Enabled)
}

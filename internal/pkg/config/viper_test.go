package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
)

const sample = `
app:
  name: otpkeeper
  server:
    auth_token: ""
    cors:
      origins: "https://a.example, https://b.example,"
    http:
      read_timeout: 15
otp:
  period: 30
  digits: 6
registry:
  flush:
    backoff_ms: 250
instrument:
  enabled: true
  log_mask_fields:
    - secret
    - authorization
`

func TestViperFromBytes(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	assert.Equal(t, "otpkeeper", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("instrument.enabled"))
	assert.Equal(t, 30, cfg.GetInt("otp.period"))
	assert.Equal(t, uint(6), cfg.GetUint("otp.digits"))
	assert.Equal(t, 15*time.Second, cfg.GetSecond("app.server.http.read_timeout"))
	assert.Equal(t, 250*time.Millisecond, cfg.GetMillisecond("registry.flush.backoff_ms"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetArray("app.server.cors.origins"))
	assert.Equal(t, []string{"secret", "authorization"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Empty(t, cfg.GetArray("app.server.auth_token"))
	assert.Empty(t, cfg.GetString("missing.key"))
}

func TestViperFromBytes_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.NewViperFromBytes(" ", []byte(sample))
	require.Error(t, err)

	_, err = config.NewViperFromBytes("yaml", []byte("app: [unclosed"))
	require.Error(t, err)
}

func TestNewViper(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	t.Setenv("REGISTRY_DRIVER", "redis")

	cfg, err := config.NewViper(file)
	require.NoError(t, err)

	assert.Equal(t, "otpkeeper", cfg.GetString("app.name"))
	assert.Equal(t, "redis", cfg.GetString("registry.driver"))

	_, err = config.NewViper(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}

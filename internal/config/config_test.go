package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Handshake.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adatp.yaml")
	content := `
server:
  host: "0.0.0.0"
  port: 9443
handshake:
  timeout: 5s
logging:
  level: "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Handshake.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Fields left unset in the file fall back to the same defaults as an
	// empty-path load.
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoad_EnvVarSubstitutionInYAML(t *testing.T) {
	os.Setenv("ADATP_TEST_HOST", "10.0.0.5")
	defer os.Unsetenv("ADATP_TEST_HOST")

	dir := t.TempDir()
	path := filepath.Join(dir, "adatp.yaml")
	content := `
server:
  host: "${ADATP_TEST_HOST}"
  port: 8443
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Server.Host)
}

func TestLoad_EnvVarSubstitutionFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adatp.yaml")
	content := `
server:
  host: "${ADATP_UNSET_HOST:192.168.1.1}"
  port: 8443
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
}

func TestLoad_EnvOverridesTakePrecedenceOverFile(t *testing.T) {
	os.Setenv("ADATP_HOST", "172.16.0.1")
	defer os.Unsetenv("ADATP_HOST")

	dir := t.TempDir()
	path := filepath.Join(dir, "adatp.yaml")
	content := "server:\n  host: \"should-be-overridden\"\n  port: 8443\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.1", cfg.Server.Host)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/adatp.yaml")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":2121", cfg.GetListenAddr())
	assert.Equal(t, "127.0.0.1", cfg.GetPublicHost())
	assert.Equal(t, 5*time.Minute, cfg.GetIdleTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetDataTimeout())
	assert.Equal(t, []string{"/data", "/meta"}, cfg.GetNamespaces())
	assert.Equal(t, int64(32<<20), cfg.GetMaxUpload())
	assert.Nil(t, cfg.StaticUsers())
}

func TestLoadYAML(t *testing.T) {
	yml := `
listen_addr: ":2221"
public_host: "10.1.2.3"
idle_timeout: 120
data_timeout: 5
namespaces:
  - /records
backend:
  url: "http://backend.local/api"
  timeout: 10
  max_upload: 1048576
users:
  - username: admin
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":2221", cfg.GetListenAddr())
	assert.Equal(t, "10.1.2.3", cfg.GetPublicHost())
	assert.Equal(t, 2*time.Minute, cfg.GetIdleTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetDataTimeout())
	assert.Equal(t, []string{"/records"}, cfg.GetNamespaces())
	assert.Equal(t, "http://backend.local/api", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.GetBackendTimeout())
	assert.Equal(t, int64(1<<20), cfg.GetMaxUpload())
	assert.Equal(t, map[string]string{"admin": "$2a$10$abcdefghijklmnopqrstuv"}, cfg.StaticUsers())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

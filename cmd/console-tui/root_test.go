package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
console:
  url: http://file.example/vjconsole
  locale: fr
session:
  refresh_interval: 1m
`), 0o600))

	v := viper.New()
	v.Set("url", "http://flag.example/console")
	v.Set("store", "/tmp/console.db")

	cfg, err := loadConfig(v, path)
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example/console", cfg.Console.URL)
	assert.Equal(t, "fr", cfg.Console.Locale)
	assert.Equal(t, "vjconsole", cfg.Console.Namespace)
	assert.Equal(t, time.Minute, cfg.Session.RefreshInterval)
	assert.Equal(t, "/tmp/console.db", cfg.Store.Path)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8888/vjconsole", cfg.Console.URL)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  refresh_interval: -1s\n"), 0o600))

	_, err := loadConfig(viper.New(), path)
	assert.Error(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "url", "namespace", "locale", "session", "store"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

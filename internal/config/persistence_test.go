// file: internal/config/persistence_test.go
// version: 2.0.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigFilePath(t *testing.T) {
	resetConfigTestState(t)

	assert.Equal(t, "", ConfigFilePath(""))
	assert.Equal(t, "/etc/books.yaml", ConfigFilePath("/etc/books.yaml"))

	AppConfig.DatabasePath = "/var/lib/books/pebble"
	assert.Equal(t, "/var/lib/books/config.yaml", ConfigFilePath(""))
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		resetConfigTestState(t)
		InitConfig()
		assert.NoError(t, LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
		assert.NoError(t, LoadConfigFromFile(""))
	})

	t.Run("file fills values under env", func(t *testing.T) {
		resetConfigTestState(t)
		t.Setenv("BOOK_LIBRARY_HOST", "0.0.0.0")
		InitConfig()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"port: 9999\nhost: file-host\nlog_level: debug\nmystery_key: 1\n"), 0o600))

		require.NoError(t, LoadConfigFromFile(path))
		assert.Equal(t, 9999, AppConfig.Port)
		assert.Equal(t, "0.0.0.0", AppConfig.Host, "env wins over file")
		assert.Equal(t, "debug", AppConfig.LogLevel)
		assert.False(t, viper.IsSet("mystery_key"))
	})

	t.Run("bad yaml", func(t *testing.T) {
		resetConfigTestState(t)
		InitConfig()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
		assert.Error(t, LoadConfigFromFile(path))
	})
}

func TestSaveConfigToFile(t *testing.T) {
	resetConfigTestState(t)
	InitConfig()
	AppConfig.Port = 8181
	AppConfig.BasicAuthPassHash = "$2a$10$hash"

	assert.Error(t, SaveConfigToFile(""))

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfigToFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, 8181, saved["port"])
	assert.Equal(t, "$2a$10$hash", saved["basic_auth_password_hash"])
	assert.Equal(t, "30s", saved["http_timeout"])

	// Round trip through a fresh viper.
	resetConfigTestState(t)
	InitConfig()
	require.NoError(t, LoadConfigFromFile(path))
	assert.Equal(t, 8181, AppConfig.Port)
}

func TestEffectiveMasksSecret(t *testing.T) {
	resetConfigTestState(t)
	InitConfig()
	AppConfig.BasicAuthPassHash = "$2a$10$hash"

	assert.Equal(t, "********", Effective(false)["basic_auth_password_hash"])
	assert.Equal(t, "$2a$10$hash", Effective(true)["basic_auth_password_hash"])
	assert.Len(t, Effective(false), len(Keys()))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, "http:\n  addr: \":9000\"\n")
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.HTTP.Addr)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.True(t, c.Database.AutoMigrate)
	assert.Equal(t, NavigationModeTree, c.Navigation.Mode)
	assert.Equal(t, 60, c.Cache.TTLSeconds)
	assert.Equal(t, "OnePlace", c.AppMeta.Name)
	assert.False(t, c.KafkaEnabled())
}

func TestLoadStaticMode(t *testing.T) {
	p := writeConfig(t, `
http:
  addr: ":8000"
database:
  driver: postgres
  dsn: "host=localhost user=oneplace dbname=oneplace"
navigation:
  mode: static
kafka:
  brokers: ["localhost:9092"]
  access_topic: http_access
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, NavigationModeStatic, c.Navigation.Mode)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.True(t, c.KafkaEnabled())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ONEPLACE_NAVIGATION_MODE", "static")
	p := writeConfig(t, "http:\n  addr: \":8000\"\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, NavigationModeStatic, c.Navigation.Mode)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "database:\n  driver: oracle\n",
		"unknown mode":     "navigation:\n  mode: fancy\n",
		"negative ttl":     "cache:\n  ttl_seconds: -1\n",
		"kafka no topic":   "kafka:\n  brokers: [\"localhost:9092\"]\n",
		"otel no endpoint": "otel:\n  enable: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"employee-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("ENV", "unittest")

	cfg, err := config.LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "unittest", cfg.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "filesystem", cfg.Storage.Driver)
	assert.Equal(t, "/media/", cfg.Storage.Filesystem.MediaURL)
	assert.Empty(t, cfg.Messaging.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: "9090"
  cors_origins:
    - http://localhost:3000
store:
  driver: memory
messaging:
  driver: kafka
  kafka:
    brokers:
      - kafka-1:9092
      - kafka-2:9092
database:
  user: fromfile
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yaml"), content, 0o600))

	t.Setenv("ENV", "test")
	t.Setenv("DB_USER", "fromenv")
	t.Setenv("STORAGE_DRIVER", "minio")

	cfg, err := config.LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "kafka", cfg.Messaging.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Messaging.Kafka.Brokers)
	assert.Equal(t, "fromenv", cfg.Database.User)
	assert.Equal(t, "minio", cfg.Storage.Driver)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.broken.yaml"), []byte("server: [unclosed"), 0o600))

	t.Setenv("ENV", "broken")

	_, err := config.LoadFrom(dir)
	require.Error(t, err)
}

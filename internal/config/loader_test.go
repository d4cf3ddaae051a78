package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  mode: "debug"
  http:
    host: "localhost"
    port: 8080
  grpc:
    enabled: true
    port: 9090
scaffold:
  include_generic_bond_scaffolds: true
  keep_only_first_fragment: false
  max_nodes: 500
abbreviation:
  max_coverage: 0.5
database:
  postgres:
    enabled: true
    host: "localhost"
    port: 5432
    user: "user"
    password: "password"
    dbname: "db"
  neo4j:
    uri: "bolt://localhost:7687"
    user: "neo4j"
    password: "password"
cache:
  redis:
    enabled: true
    addr: "localhost:6379"
    network_ttl: 1h
messaging:
  kafka:
    brokers: ["localhost:9092"]
    consumer_group: "group"
storage:
  minio:
    endpoint: "localhost:9000"
    access_key: "key"
    secret_key: "secret"
    bucket_name: "bucket"
search:
  opensearch:
    addresses: ["http://localhost:9200"]
monitoring:
  logging:
    level: "debug"
    format: "console"
  prometheus:
    enabled: true
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "localhost", cfg.Server.HTTP.Host)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.True(t, cfg.Server.GRPC.Enabled)
	assert.Equal(t, "db", cfg.Database.Postgres.DBName)
	assert.Equal(t, time.Hour, cfg.Cache.Redis.NetworkTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Messaging.Kafka.Brokers)
	assert.Equal(t, "console", cfg.Monitoring.Logging.Format)

	// explicit values
	assert.True(t, cfg.Scaffold.IncludeGenericBondScaffolds)
	assert.False(t, cfg.Scaffold.KeepOnlyFirstFragment)
	assert.Equal(t, 500, cfg.Scaffold.MaxNodes)
	assert.Equal(t, 0.5, cfg.Abbreviation.MaxCoverage)
	// viper defaults for omitted booleans
	assert.True(t, cfg.Scaffold.IncludeGenericScaffolds)
	assert.True(t, cfg.Scaffold.IncludeScaffoldsWithoutAttachments)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "non_existent_config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	invalidConfig := `
scaffold:
  max_nodes: -3
`
	path := createTempConfigFile(t, invalidConfig)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "scaffold.max_nodes")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("SCAFFOLDNET_SERVER_HTTP_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTP.Port)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("SCAFFOLDNET_DATABASE_POSTGRES_HOST", "db-host")
	t.Setenv("SCAFFOLDNET_SCAFFOLD_MAX_NODES", "42")
	t.Setenv("SCAFFOLDNET_SCAFFOLD_EXCLUDE_SCAFFOLDS_WITH_ATTACHMENTS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db-host", cfg.Database.Postgres.Host)
	assert.Equal(t, 42, cfg.Scaffold.MaxNodes)
	assert.True(t, cfg.Scaffold.ExcludeScaffoldsWithAttachments)
}

func TestLoad_DefaultValues(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  mode: \"test\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTP.Port)
	assert.Equal(t, DefaultMaxInputs, cfg.Scaffold.MaxInputs)
	assert.Equal(t, DefaultMaxCoverage, cfg.Abbreviation.MaxCoverage)
	assert.True(t, cfg.Scaffold.IncludeGenericScaffolds)
	assert.False(t, cfg.Scaffold.IncludeGenericBondScaffolds)
	assert.True(t, cfg.Scaffold.KeepOnlyFirstFragment)
	assert.Equal(t, DefaultRedisAddr, cfg.Cache.Redis.Addr)
	assert.Equal(t, DefaultLogLevel, cfg.Monitoring.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCAFFOLDNET_SERVER_HTTP_PORT", "7070")
	t.Setenv("SCAFFOLDNET_CACHE_REDIS_ADDR", "redis:6380")
	t.Setenv("SCAFFOLDNET_ABBREVIATION_MAX_COVERAGE", "0.25")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTP.Port)
	assert.Equal(t, "redis:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, 0.25, cfg.Abbreviation.MaxCoverage)
	assert.Equal(t, DefaultHTTPHost, cfg.Server.HTTP.Host)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}

//Personal.AI order the ending

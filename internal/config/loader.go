package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform settings.
const envPrefix = "SCAFFOLDNET"

// newViper builds a pre-configured Viper instance with the platform's standard
// settings: YAML file type, SCAFFOLDNET_ env prefix, automatic env binding,
// and a key replacer that maps "." → "_" so that nested keys like
// "database.postgres.host" resolve to "SCAFFOLDNET_DATABASE_POSTGRES_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setViperDefaults(v)
	return v
}

// Load reads the YAML file at configPath, merges any SCAFFOLDNET_*
// environment variable overrides, applies platform defaults for unset fields,
// and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SCAFFOLDNET_* environment
// variables, with no config file required.
//
// Environment variable naming convention:
//
//	SCAFFOLDNET_<SECTION>_<FIELD>   e.g.  SCAFFOLDNET_CACHE_REDIS_ADDR
//
// Viper only resolves environment variables for keys it already knows, so
// every leaf of Config is bound explicitly.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	for _, key := range configKeys() {
		_ = v.BindEnv(key)
	}
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Only the log level
// and the scaffold/abbreviation defaults are meant to be applied at runtime.
//
// Watch is non-blocking.  A change that fails to parse or validate is passed
// to onError (when non-nil) and onChange is not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; callers are expected to have called Load first.
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// configKeys lists the dotted keys of every Config leaf.
func configKeys() []string {
	return []string{
		"server.mode",
		"server.http.host", "server.http.port", "server.http.read_timeout", "server.http.write_timeout",
		"server.http.max_body_size", "server.http.shutdown_timeout",
		"server.http.cors_allowed_origins", "server.http.rate_limit_rps", "server.http.rate_limit_burst",
		"server.grpc.enabled", "server.grpc.host", "server.grpc.port", "server.grpc.max_recv_msg_size",
		"server.grpc.enable_reflection",
		"scaffold.bond_breakers", "scaffold.include_generic_scaffolds", "scaffold.include_generic_bond_scaffolds",
		"scaffold.keep_only_first_fragment", "scaffold.include_scaffolds_without_attachments",
		"scaffold.exclude_scaffolds_with_attachments",
		"scaffold.max_nodes", "scaffold.max_queue", "scaffold.max_inputs",
		"abbreviation.max_coverage", "abbreviation.definitions_file",
		"database.postgres.enabled", "database.postgres.host", "database.postgres.port", "database.postgres.user",
		"database.postgres.password", "database.postgres.dbname", "database.postgres.sslmode",
		"database.postgres.max_open_conns", "database.postgres.max_idle_conns",
		"database.postgres.conn_max_lifetime", "database.postgres.conn_max_idle_time", "database.postgres.auto_migrate",
		"database.neo4j.enabled", "database.neo4j.uri", "database.neo4j.user", "database.neo4j.password",
		"database.neo4j.database", "database.neo4j.max_connection_pool_size", "database.neo4j.connection_timeout",
		"cache.redis.enabled", "cache.redis.addr", "cache.redis.password", "cache.redis.db", "cache.redis.pool_size",
		"cache.redis.min_idle_conns", "cache.redis.dial_timeout", "cache.redis.read_timeout",
		"cache.redis.write_timeout", "cache.redis.network_ttl", "cache.redis.key_prefix",
		"messaging.kafka.enabled", "messaging.kafka.brokers", "messaging.kafka.consumer_group",
		"messaging.kafka.request_topic", "messaging.kafka.completed_topic", "messaging.kafka.auto_offset_reset",
		"messaging.kafka.batch_size", "messaging.kafka.batch_timeout", "messaging.kafka.max_retries",
		"messaging.kafka.retry_backoff",
		"storage.minio.enabled", "storage.minio.endpoint", "storage.minio.access_key", "storage.minio.secret_key",
		"storage.minio.bucket_name", "storage.minio.region", "storage.minio.use_ssl", "storage.minio.object_prefix",
		"storage.minio.presign_expiry",
		"search.opensearch.enabled", "search.opensearch.addresses", "search.opensearch.username",
		"search.opensearch.password", "search.opensearch.insecure_skip_verify", "search.opensearch.index_name",
		"search.opensearch.bulk_batch_size",
		"monitoring.logging.level", "monitoring.logging.format", "monitoring.logging.output_paths",
		"monitoring.logging.error_output_paths",
		"monitoring.prometheus.enabled", "monitoring.prometheus.namespace", "monitoring.prometheus.path",
		"worker.concurrency", "worker.shutdown_timeout",
	}
}

//Personal.AI order the ending

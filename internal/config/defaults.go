package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerMode = "release"
	DefaultHTTPHost   = "0.0.0.0"
	DefaultHTTPPort   = 8080
	DefaultGRPCPort   = 9090

	DefaultMaxInputs   = 1000
	DefaultMaxCoverage = 0.4

	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "scaffoldnet"

	DefaultRedisAddr  = "localhost:6379"
	DefaultNetworkTTL = 24 * time.Hour

	DefaultKafkaBroker    = "localhost:9092"
	DefaultConsumerGroup  = "scaffoldnet-worker"
	DefaultRequestTopic   = "scaffold.network.requested"
	DefaultCompletedTopic = "scaffold.network.completed"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "scaffold-networks"

	DefaultOpenSearchAddr  = "http://localhost:9200"
	DefaultOpenSearchIndex = "scaffolds"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultMetricsNamespace = "scaffoldnet"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4
)

// setViperDefaults registers the defaults ApplyDefaults cannot express:
// booleans that default to true and a coverage whose zero value means
// "no gate".
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("scaffold.include_generic_scaffolds", true)
	v.SetDefault("scaffold.include_generic_bond_scaffolds", false)
	v.SetDefault("scaffold.keep_only_first_fragment", true)
	v.SetDefault("scaffold.include_scaffolds_without_attachments", true)
	v.SetDefault("scaffold.exclude_scaffolds_with_attachments", false)
	v.SetDefault("abbreviation.max_coverage", DefaultMaxCoverage)
	v.SetDefault("monitoring.prometheus.enabled", true)
}

// Default returns a fully defaulted Config without reading any file or
// environment variable.
func Default() *Config {
	cfg := &Config{
		Scaffold: ScaffoldConfig{
			IncludeGenericScaffolds:            true,
			KeepOnlyFirstFragment:              true,
			IncludeScaffoldsWithoutAttachments: true,
		},
		Abbreviation: AbbreviationConfig{MaxCoverage: DefaultMaxCoverage},
		Monitoring:   MonitoringConfig{Prometheus: PrometheusConfig{Enabled: true}},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.HTTP.MaxBodySize == 0 {
		cfg.Server.HTTP.MaxBodySize = 4 << 20
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.HTTP.RateLimitRPS > 0 && cfg.Server.HTTP.RateLimitBurst == 0 {
		cfg.Server.HTTP.RateLimitBurst = int(cfg.Server.HTTP.RateLimitRPS*2) + 1
	}
	if cfg.Server.GRPC.Host == "" {
		cfg.Server.GRPC.Host = DefaultHTTPHost
	}
	if cfg.Server.GRPC.Port == 0 {
		cfg.Server.GRPC.Port = DefaultGRPCPort
	}
	if cfg.Server.GRPC.MaxRecvMsgSize == 0 {
		cfg.Server.GRPC.MaxRecvMsgSize = 4 << 20
	}

	// ── Scaffold / Abbreviation ───────────────────────────────────────────────
	if cfg.Scaffold.MaxInputs == 0 {
		cfg.Scaffold.MaxInputs = DefaultMaxInputs
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultDBPort
	}
	if pg.DBName == "" {
		pg.DBName = DefaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.MaxOpenConns == 0 {
		pg.MaxOpenConns = 25
	}
	if pg.MaxIdleConns == 0 {
		pg.MaxIdleConns = 5
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = 30 * time.Minute
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Database.Neo4j.URI == "" {
		cfg.Database.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Database.Neo4j.Database == "" {
		cfg.Database.Neo4j.Database = "neo4j"
	}
	if cfg.Database.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Database.Neo4j.MaxConnectionPoolSize = 50
	}
	if cfg.Database.Neo4j.ConnectionTimeout == 0 {
		cfg.Database.Neo4j.ConnectionTimeout = 10 * time.Second
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.NetworkTTL == 0 {
		cfg.Cache.Redis.NetworkTTL = DefaultNetworkTTL
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = "scaffoldnet:"
	}
	if cfg.Cache.Redis.PoolSize == 0 {
		cfg.Cache.Redis.PoolSize = 10
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	k := &cfg.Messaging.Kafka
	if len(k.Brokers) == 0 {
		k.Brokers = []string{DefaultKafkaBroker}
	}
	if k.ConsumerGroup == "" {
		k.ConsumerGroup = DefaultConsumerGroup
	}
	if k.RequestTopic == "" {
		k.RequestTopic = DefaultRequestTopic
	}
	if k.CompletedTopic == "" {
		k.CompletedTopic = DefaultCompletedTopic
	}
	if k.AutoOffsetReset == "" {
		k.AutoOffsetReset = "earliest"
	}
	if k.BatchSize == 0 {
		k.BatchSize = 100
	}
	if k.BatchTimeout == 0 {
		k.BatchTimeout = time.Second
	}
	if k.MaxRetries == 0 {
		k.MaxRetries = 3
	}
	if k.RetryBackoff == 0 {
		k.RetryBackoff = 500 * time.Millisecond
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.Storage.MinIO.Endpoint == "" {
		cfg.Storage.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.Storage.MinIO.BucketName == "" {
		cfg.Storage.MinIO.BucketName = DefaultMinIOBucket
	}
	if cfg.Storage.MinIO.ObjectPrefix == "" {
		cfg.Storage.MinIO.ObjectPrefix = "networks/"
	}
	if cfg.Storage.MinIO.PresignExpiry == 0 {
		cfg.Storage.MinIO.PresignExpiry = time.Hour
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.Search.OpenSearch.Addresses) == 0 {
		cfg.Search.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.Search.OpenSearch.IndexName == "" {
		cfg.Search.OpenSearch.IndexName = DefaultOpenSearchIndex
	}
	if cfg.Search.OpenSearch.BulkBatchSize == 0 {
		cfg.Search.OpenSearch.BulkBatchSize = 500
	}

	// ── Monitoring ────────────────────────────────────────────────────────────
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = DefaultLogLevel
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = DefaultLogFormat
	}
	if cfg.Monitoring.Prometheus.Namespace == "" {
		cfg.Monitoring.Prometheus.Namespace = DefaultMetricsNamespace
	}
	if cfg.Monitoring.Prometheus.Path == "" {
		cfg.Monitoring.Prometheus.Path = DefaultMetricsPath
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	if cfg.Auth.JWKSRefreshInterval == 0 {
		cfg.Auth.JWKSRefreshInterval = 5 * time.Minute
	}
	if cfg.Auth.RequestTimeout == 0 {
		cfg.Auth.RequestTimeout = 10 * time.Second
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = 30 * time.Second
	}
}

//Personal.AI order the ending

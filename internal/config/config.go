// Package config defines all configuration structures for ScaffoldNet.  No
// I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds HTTP server tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// GRPCConfig holds gRPC server tunables.
type GRPCConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	MaxRecvMsgSize   int    `mapstructure:"max_recv_msg_size"`
	EnableReflection bool   `mapstructure:"enable_reflection"`
}

// Addr returns host:port.
func (c GRPCConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// ServerConfig groups the inbound transports.
type ServerConfig struct {
	Mode string     `mapstructure:"mode"` // "debug" | "release" | "test"
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Core algorithms
// ─────────────────────────────────────────────────────────────────────────────

// ScaffoldConfig holds the network defaults used when a request carries no
// parameters of its own.
type ScaffoldConfig struct {
	BondBreakers                       []string `mapstructure:"bond_breakers"`
	IncludeGenericScaffolds            bool     `mapstructure:"include_generic_scaffolds"`
	IncludeGenericBondScaffolds        bool     `mapstructure:"include_generic_bond_scaffolds"`
	KeepOnlyFirstFragment              bool     `mapstructure:"keep_only_first_fragment"`
	IncludeScaffoldsWithoutAttachments bool     `mapstructure:"include_scaffolds_without_attachments"`
	ExcludeScaffoldsWithAttachments    bool     `mapstructure:"exclude_scaffolds_with_attachments"`
	MaxNodes                           int      `mapstructure:"max_nodes"`
	MaxQueue                           int      `mapstructure:"max_queue"`
	MaxInputs                          int      `mapstructure:"max_inputs"`
}

// AbbreviationConfig holds condenser settings.
type AbbreviationConfig struct {
	MaxCoverage     float64 `mapstructure:"max_coverage"`
	DefinitionsFile string  `mapstructure:"definitions_file"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Backends
// ─────────────────────────────────────────────────────────────────────────────

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN renders the connection string understood by the pgx driver.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Neo4jConfig holds Neo4j connection parameters.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// DatabaseConfig groups the stores.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	NetworkTTL   time.Duration `mapstructure:"network_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig groups the caches.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds producer and consumer parameters.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	RequestTopic    string        `mapstructure:"request_topic"`
	CompletedTopic  string        `mapstructure:"completed_topic"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

// MessagingConfig groups the brokers.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// MinIOConfig holds object-storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	BucketName    string        `mapstructure:"bucket_name"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	ObjectPrefix  string        `mapstructure:"object_prefix"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// StorageConfig groups object stores.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// OpenSearchConfig holds cluster connection parameters.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexName          string   `mapstructure:"index_name"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
}

// SearchConfig groups search engines.
type SearchConfig struct {
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
}

// PrometheusConfig holds metrics exposition parameters.
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// MonitoringConfig groups logging and metrics.
type MonitoringConfig struct {
	Logging    logging.LogConfig `mapstructure:"logging"`
	Prometheus PrometheusConfig  `mapstructure:"prometheus"`
}

// AuthConfig enables bearer-token authentication of the API against a
// Keycloak realm.  Tokens are verified locally with the realm's JWKS.
type AuthConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	BaseURL             string        `mapstructure:"base_url"`
	Realm               string        `mapstructure:"realm"`
	ClientID            string        `mapstructure:"client_id"`
	JWKSRefreshInterval time.Duration `mapstructure:"jwks_refresh_interval"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Scaffold     ScaffoldConfig     `mapstructure:"scaffold"`
	Abbreviation AbbreviationConfig `mapstructure:"abbreviation"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Messaging    MessagingConfig    `mapstructure:"messaging"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Search       SearchConfig       `mapstructure:"search"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}
	if c.Server.GRPC.Enabled {
		if c.Server.GRPC.Port < 1 || c.Server.GRPC.Port > 65535 {
			return fmt.Errorf("config: server.grpc.port %d is out of range [1, 65535]", c.Server.GRPC.Port)
		}
		if c.Server.GRPC.Port == c.Server.HTTP.Port && c.Server.GRPC.Host == c.Server.HTTP.Host {
			return fmt.Errorf("config: server.grpc.port %d collides with server.http.port", c.Server.GRPC.Port)
		}
	}

	// Scaffold
	if c.Scaffold.MaxNodes < 0 {
		return fmt.Errorf("config: scaffold.max_nodes must be ≥ 0, got %d", c.Scaffold.MaxNodes)
	}
	if c.Scaffold.MaxQueue < 0 {
		return fmt.Errorf("config: scaffold.max_queue must be ≥ 0, got %d", c.Scaffold.MaxQueue)
	}
	if c.Scaffold.MaxInputs < 1 {
		return fmt.Errorf("config: scaffold.max_inputs must be ≥ 1, got %d", c.Scaffold.MaxInputs)
	}

	// Abbreviation
	if c.Abbreviation.MaxCoverage < 0 {
		return fmt.Errorf("config: abbreviation.max_coverage must be ≥ 0, got %g", c.Abbreviation.MaxCoverage)
	}

	// Postgres
	if pg := c.Database.Postgres; pg.Enabled {
		if pg.Host == "" {
			return fmt.Errorf("config: database.postgres.host is required")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", pg.Port)
		}
		if pg.User == "" {
			return fmt.Errorf("config: database.postgres.user is required")
		}
		if pg.DBName == "" {
			return fmt.Errorf("config: database.postgres.dbname is required")
		}
	}

	// Neo4j
	if c.Database.Neo4j.Enabled && c.Database.Neo4j.URI == "" {
		return fmt.Errorf("config: database.neo4j.uri is required")
	}

	// Redis
	if r := c.Cache.Redis; r.Enabled {
		if r.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required")
		}
		if r.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", r.DB)
		}
	}

	// Kafka
	if k := c.Messaging.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
		}
		if k.ConsumerGroup == "" {
			return fmt.Errorf("config: messaging.kafka.consumer_group is required")
		}
		if k.RequestTopic == "" || k.CompletedTopic == "" {
			return fmt.Errorf("config: messaging.kafka request and completed topics are required")
		}
	}

	// MinIO
	if m := c.Storage.MinIO; m.Enabled {
		if m.Endpoint == "" {
			return fmt.Errorf("config: storage.minio.endpoint is required")
		}
		if m.BucketName == "" {
			return fmt.Errorf("config: storage.minio.bucket_name is required")
		}
	}

	// OpenSearch
	if o := c.Search.OpenSearch; o.Enabled && len(o.Addresses) == 0 {
		return fmt.Errorf("config: search.opensearch.addresses must contain at least one address")
	}

	// Auth
	if a := c.Auth; a.Enabled {
		if a.BaseURL == "" || a.Realm == "" || a.ClientID == "" {
			return fmt.Errorf("config: auth.base_url, auth.realm and auth.client_id are required")
		}
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Logging
	switch c.Monitoring.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: monitoring.logging.level %q is invalid; expected debug|info|warn|error", c.Monitoring.Logging.Level)
	}
	switch c.Monitoring.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: monitoring.logging.format %q is invalid; expected json|console", c.Monitoring.Logging.Format)
	}

	return nil
}

//Personal.AI order the ending

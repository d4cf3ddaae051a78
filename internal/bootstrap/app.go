// Package bootstrap assembles the ScaffoldNet runtime from configuration:
// metrics, the enabled backends, the application services wired to them and
// the readiness checks of every backend.  It is shared by the API server, the
// worker and the CLI.
package bootstrap

import (
	"context"
	"time"

	"go.uber.org/multierr"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/config"
	domain "github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/auth/keycloak"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/ScaffoldNet/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/ScaffoldNet/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/redis"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/search/opensearch"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/storage/minio"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/handlers"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const (
	eventSource      = "scaffoldnet"
	setupTimeout     = 30 * time.Second
	defaultNamespace = "scaffoldnet"
)

// Options tunes what New wires.
type Options struct {
	// Offline skips every backend.  The services still build networks and
	// condense molecules but cannot store or look anything up.
	Offline bool
	// DisableBuildEvents stops the scaffold service from announcing builds on
	// the completion topic.  The worker sets it because it publishes its own
	// completion events.
	DisableBuildEvents bool
}

// App holds the assembled runtime.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Postgres   *postgres.Connection
	Neo4j      *neo4j.Driver
	Redis      *redis.Client
	OpenSearch *opensearch.Client
	MinIO      *minio.Client
	Producer   *kafka.Producer
	// Auth is nil unless bearer authentication is enabled.
	Auth *keycloak.Verifier

	Networks      appscaffold.Service
	Abbreviations appabbr.Service

	checkers []handlers.HealthChecker
	closers  []func(ctx context.Context) error
}

// New builds an App.  On failure everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (app *App, err error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "config is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
			app = nil
		}
	}()

	if err = app.initMetrics(); err != nil {
		return nil, err
	}

	deps := appscaffold.Deps{
		Config:  cfg.Scaffold,
		Metrics: app.Metrics,
		Logger:  logger,
	}
	if !opts.Offline {
		setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
		defer cancel()
		if err = app.initBackends(setupCtx, &deps, opts); err != nil {
			return nil, err
		}
	}
	app.Networks = appscaffold.NewService(deps)

	app.Abbreviations, err = appabbr.NewService(appabbr.Deps{
		Config:  cfg.Abbreviation,
		Metrics: app.Metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) initMetrics() error {
	pc := a.Config.Monitoring.Prometheus
	if !pc.Enabled {
		return nil
	}
	ns := pc.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            ns,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Collector = collector
	a.Metrics = prometheus.NewAppMetrics(collector)
	return nil
}

func (a *App) initBackends(ctx context.Context, deps *appscaffold.Deps, opts Options) error {
	cfg := a.Config
	log := a.Logger

	// PostgreSQL: network records
	var repo *pgrepo.NetworkRepository
	if pg := cfg.Database.Postgres; pg.Enabled {
		if pg.AutoMigrate {
			if err := postgres.RunMigrations(pg.DSN()); err != nil {
				return err
			}
		}
		conn, err := postgres.NewConnection(pg, log)
		if err != nil {
			return err
		}
		a.Postgres = conn
		a.addCloser(func(context.Context) error { return conn.Close() })
		a.addCheck("postgres", conn.HealthCheck)

		repo = pgrepo.NewNetworkRepository(conn, log, a.Metrics)
		deps.Repository = repo
		deps.Index = repo
	}

	// Redis: network cache and build locks
	if rc := cfg.Cache.Redis; rc.Enabled {
		client, err := redis.NewClient(rc, log)
		if err != nil {
			return err
		}
		a.Redis = client
		a.addCloser(func(context.Context) error { return client.Close() })
		a.addCheck("redis", client.Ping)

		deps.Cache = redis.NewNetworkCache(client, log,
			redis.WithPrefix(rc.KeyPrefix),
			redis.WithDefaultTTL(rc.NetworkTTL),
			redis.WithMetrics(a.Metrics))
		deps.CacheTTL = rc.NetworkTTL
		deps.Locks = LockFactory(redis.NewBuildLocker(client, log, redis.WithLockPrefix(rc.KeyPrefix)))
	}

	// Neo4j: graph projection
	if nc := cfg.Database.Neo4j; nc.Enabled {
		driver, err := neo4j.NewDriver(nc, log)
		if err != nil {
			return err
		}
		a.Neo4j = driver
		a.addCloser(driver.Close)
		a.addCheck("neo4j", driver.HealthCheck)

		graph := neo4jrepo.NewScaffoldGraphRepository(driver, log)
		if err := graph.EnsureConstraints(ctx); err != nil {
			log.Warn("failed to ensure neo4j constraints", logging.Err(err))
		}
		deps.Graph = graph
	}

	// OpenSearch: scaffold index, replacing the SQL lookup when enabled
	if oc := cfg.Search.OpenSearch; oc.Enabled {
		client, err := opensearch.NewClient(oc, log)
		if err != nil {
			return err
		}
		a.OpenSearch = client
		a.addCloser(func(context.Context) error { return client.Close() })
		a.addCheck("opensearch", client.Ping)

		indexer := opensearch.NewScaffoldIndexer(client, oc.IndexName, log,
			opensearch.WithBatchSize(oc.BulkBatchSize))
		if err := indexer.EnsureIndex(ctx); err != nil {
			log.Warn("failed to ensure opensearch index", logging.Err(err))
		}
		deps.Index = indexer
	}

	// MinIO: artifact export
	if mc := cfg.Storage.MinIO; mc.Enabled {
		client, err := minio.NewClient(mc, log)
		if err != nil {
			return err
		}
		a.MinIO = client
		a.addCloser(func(context.Context) error { return client.Close() })
		a.addCheck("minio", client.HealthCheck)

		if err := client.EnsureBucket(ctx); err != nil {
			log.Warn("failed to ensure minio bucket", logging.Err(err))
		}
		deps.Artifacts = minio.NewNetworkArtifactStore(client, log)
	}

	// Kafka: completion events
	if kc := cfg.Messaging.Kafka; kc.Enabled {
		ensureTopics(ctx, kc, log)
		producer, err := kafka.NewProducer(kc, log, a.Metrics)
		if err != nil {
			return err
		}
		a.Producer = producer
		a.addCloser(func(context.Context) error { return producer.Close() })
		if !opts.DisableBuildEvents {
			deps.Publisher = kafka.NewNetworkEventPublisher(producer, kc.CompletedTopic, eventSource)
		}
	}

	// Keycloak: bearer token verification for the API
	if ac := cfg.Auth; ac.Enabled {
		verifier, err := keycloak.NewVerifier(ctx, ac, log)
		if err != nil {
			return err
		}
		a.Auth = verifier
		a.addCloser(func(context.Context) error { return verifier.Close() })
		a.addCheck("keycloak", verifier.Health)
	}

	log.Info("backends initialized", logging.Strings("components", a.components()))
	return nil
}

func ensureTopics(ctx context.Context, kc config.KafkaConfig, log logging.Logger) {
	tm, err := kafka.NewTopicManager(kc.Brokers, log)
	if err != nil {
		log.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(kc)); err != nil {
		log.Warn("failed to ensure kafka topics", logging.Err(err))
	}
}

// LockFactory adapts a Redis BuildLocker to the scaffold service.
func LockFactory(locker *redis.BuildLocker) appscaffold.LockFactory {
	return func(fingerprint string) appscaffold.BuildLock {
		return locker.Mutex(fingerprint)
	}
}

func (a *App) addCloser(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) addCheck(name string, fn func(ctx context.Context) error) {
	a.checkers = append(a.checkers, handlers.HealthCheckFunc{Component: name, Fn: fn})
}

func (a *App) components() []string {
	names := make([]string, 0, len(a.checkers)+1)
	for _, c := range a.checkers {
		names = append(names, c.Name())
	}
	if a.Producer != nil {
		names = append(names, "kafka")
	}
	return names
}

// HealthCheckers returns a readiness check for every connected backend.
func (a *App) HealthCheckers() []handlers.HealthChecker {
	return append([]handlers.HealthChecker(nil), a.checkers...)
}

// Close releases every backend, most recently opened first.
func (a *App) Close(ctx context.Context) error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i](ctx))
	}
	a.closers = nil
	return err
}

var _ domain.ScaffoldIndex = (*pgrepo.NetworkRepository)(nil)

//Personal.AI order the ending

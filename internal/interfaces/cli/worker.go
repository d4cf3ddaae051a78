package cli

import (
	"context"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/turtacn/ScaffoldNet/internal/bootstrap"
	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/ScaffoldNet/internal/interfaces/http"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/handlers"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/worker"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const defaultHealthPort = 8081

// WorkerOptions tunes RunWorker.
type WorkerOptions struct {
	// Workers is the number of group consumers; 0 uses worker.concurrency
	// from the config, then CPU*2.
	Workers int
	// HealthPort serves /healthz, /readyz and /metrics; 0 disables it.
	HealthPort int
}

// NewWorkerCmd creates the worker command consuming build requests.
func NewWorkerCmd() *cobra.Command {
	opts := WorkerOptions{}
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume network build requests from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			logger, err := serviceLogger(cmd, cliCtx.Config)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunWorker(ctx, cliCtx.Config, logger, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of concurrent consumers (default: config, then CPU*2)")
	cmd.Flags().IntVar(&opts.HealthPort, "health-port", defaultHealthPort, "health and metrics port (0 disables)")
	return cmd
}

func workerCount(opts WorkerOptions, cfg config.WorkerConfig) int {
	switch {
	case opts.Workers > 0:
		return opts.Workers
	case cfg.Concurrency > 0:
		return cfg.Concurrency
	default:
		return runtime.NumCPU() * 2
	}
}

// RunWorker consumes the request topic until ctx is done.  Completion events
// are published by the request handler, so the scaffold service itself does
// not announce builds.
func RunWorker(ctx context.Context, cfg *config.Config, logger logging.Logger, opts WorkerOptions) (err error) {
	kc := cfg.Messaging.Kafka
	if !kc.Enabled {
		return errors.New(errors.ErrCodeConfiguration, "worker requires messaging.kafka.enabled")
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{DisableBuildEvents: true})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, app.Close(context.Background()))
	}()

	handler := worker.NewNetworkRequestHandler(app.Networks, app.Producer, logger,
		worker.WithCompletedTopic(kc.CompletedTopic))
	factory := func() (worker.Consumer, error) {
		c, err := kafka.NewConsumer(kc, []string{kc.RequestTopic}, app.Producer, logger, app.Metrics)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	n := workerCount(opts, cfg.Worker)
	pool := worker.NewPool(factory, kc.RequestTopic, handler.Handle, n, logger)

	var health *httpapi.Server
	if opts.HealthPort > 0 {
		router := httpapi.NewRouter(httpapi.RouterConfig{
			HealthHandler:    handlers.NewHealthHandler(Version, app.HealthCheckers()...),
			Logger:           logger,
			MetricsCollector: app.Collector,
		})
		health = httpapi.NewServer(config.HTTPConfig{Port: opts.HealthPort}, router, logger)
		go func() {
			if err := health.Start(); err != nil {
				logger.Error("health server failed", logging.Err(err))
			}
		}()
	}

	if err := pool.Start(ctx); err != nil {
		if health != nil {
			_ = health.Stop(context.Background())
		}
		return err
	}
	logger.Info("worker started",
		logging.Int("workers", n),
		logging.String("topic", kc.RequestTopic),
		logging.String("group", kc.ConsumerGroup))

	<-ctx.Done()
	logger.Info("stopping worker")

	stats := pool.Stats()
	err = pool.Close()
	logger.Info("worker stopped",
		logging.Int64("consumed", stats.Consumed),
		logging.Int64("processed", stats.Processed),
		logging.Int64("failed", stats.Failed),
		logging.Int64("dead_lettered", stats.DeadLettered))
	if health != nil {
		err = multierr.Append(err, health.Stop(context.Background()))
	}
	return err
}

//Personal.AI order the ending

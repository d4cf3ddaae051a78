// Worker entry point: consumes scaffold network build requests from Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/cli"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
)

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workers := flag.Int("workers", 0, "number of concurrent workers (default: config, then CPU*2)")
	healthPort := flag.Int("health-port", defaultHealthPort, "health and metrics port (0 disables)")
	flag.Parse()

	cli.Version = version

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Monitoring.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = cli.RunWorker(ctx, cfg, logger, cli.WorkerOptions{Workers: *workers, HealthPort: *healthPort})
	if err != nil {
		logger.Error("worker failed", logging.Err(err))
		os.Exit(1)
	}
}

//Personal.AI order the ending

package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ScaffoldNet/internal/bootstrap"
	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/auth/keycloak"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	grpcapi "github.com/turtacn/ScaffoldNet/internal/interfaces/grpc"
	httpapi "github.com/turtacn/ScaffoldNet/internal/interfaces/http"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/handlers"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/middleware"
)

const rateLimitIdleTTL = 10 * time.Minute

// NewServeCmd creates the serve command running the HTTP and gRPC APIs.
func NewServeCmd() *cobra.Command {
	var (
		httpPort int
		grpcPort int
		noGRPC   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC API servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if httpPort > 0 {
				cfg.Server.HTTP.Port = httpPort
			}
			if grpcPort > 0 {
				cfg.Server.GRPC.Port = grpcPort
			}
			if noGRPC {
				cfg.Server.GRPC.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := serviceLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunServer(ctx, cfg, logger)
		},
	}
	cmd.Flags().IntVar(&httpPort, "http-port", 0, "HTTP port (overrides config)")
	cmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "gRPC port (overrides config)")
	cmd.Flags().BoolVar(&noGRPC, "no-grpc", false, "do not start the gRPC server")
	return cmd
}

// serviceLogger builds the long-running process logger from the monitoring
// config.  An explicit --log-level or --verbose still wins.
func serviceLogger(cmd *cobra.Command, cfg *config.Config) (logging.Logger, error) {
	lc := cfg.Monitoring.Logging
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		lc.Level, _ = flags.GetString("log-level")
	}
	if v, _ := flags.GetBool("verbose"); v {
		lc.Level = "debug"
	}
	return logging.NewLogger(lc)
}

// NewAPIHandler assembles the HTTP API over app's services.  The returned
// func releases the rate limiter.
func NewAPIHandler(app *bootstrap.App, version string) (http.Handler, func()) {
	cfg := app.Config.Server.HTTP
	logCfg := middleware.DefaultLoggingConfig()
	rc := httpapi.RouterConfig{
		NetworkHandler:      handlers.NewNetworkHandler(app.Networks, app.Logger, cfg.MaxBodySize),
		AbbreviationHandler: handlers.NewAbbreviationHandler(app.Abbreviations, app.Logger, cfg.MaxBodySize),
		HealthHandler:       handlers.NewHealthHandler(version, app.HealthCheckers()...),
		Logging:             &logCfg,
		Logger:              app.Logger,
		MetricsCollector:    app.Collector,
		Metrics:             app.Metrics,
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.CORSAllowedOrigins
		rc.CORS = &cors
	}
	if app.Auth != nil {
		rc.Auth = apiAuth(app)
		rc.RBAC = keycloak.NewEnforcer(nil, app.Logger)
	}
	release := func() {}
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitIdleTTL)
		rc.RateLimiter = limiter
		release = limiter.Stop
	}
	return httpapi.NewRouter(rc), release
}

func apiAuth(app *bootstrap.App) *keycloak.AuthMiddleware {
	return keycloak.NewAuthMiddleware(app.Auth, app.Logger.Named("auth"))
}

// RunServer serves the HTTP API, and the gRPC API when enabled, until ctx
// is done or a server fails.
func RunServer(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(context.Background()); cerr != nil {
			logger.Error("failed to close backends", logging.Err(cerr))
		}
	}()

	handler, release := NewAPIHandler(app, Version)
	defer release()
	httpSrv := httpapi.NewServer(cfg.Server.HTTP, handler, logger)

	var grpcSrv *grpcapi.Server
	if cfg.Server.GRPC.Enabled {
		opts := []grpcapi.Option{
			grpcapi.WithLogger(logger),
			grpcapi.WithMetrics(app.Metrics),
			grpcapi.WithGracefulTimeout(cfg.Server.HTTP.ShutdownTimeout),
		}
		if app.Auth != nil {
			opts = append(opts, grpcapi.WithAuthenticator(apiAuth(app).Authenticate))
		}
		grpcSrv, err = grpcapi.NewServer(&cfg.Server.GRPC, opts...)
		if err != nil {
			return err
		}
		grpcSrv.RegisterService(&grpcapi.ScaffoldServiceDesc,
			grpcapi.NewScaffoldServiceServer(app.Networks, app.Abbreviations))
	}

	logger.Info("starting scaffoldnet server",
		logging.String("version", Version),
		logging.String("http_addr", cfg.Server.HTTP.Addr()),
		logging.Bool("grpc", grpcSrv != nil))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	if grpcSrv != nil {
		g.Go(grpcSrv.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		stopCtx := context.Background()
		err := httpSrv.Stop(stopCtx)
		if grpcSrv != nil {
			err = multierr.Append(err, grpcSrv.Stop(stopCtx))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("servers stopped")
	return nil
}

//Personal.AI order the ending

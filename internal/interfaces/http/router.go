package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/auth/keycloak"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/handlers"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	NetworkHandler      *handlers.NetworkHandler
	AbbreviationHandler *handlers.AbbreviationHandler
	HealthHandler       *handlers.HealthHandler

	// Middleware; nil entries are skipped.
	CORS        *middleware.CORSConfig
	Logging     *middleware.LoggingConfig
	RateLimiter middleware.RateLimiter
	// Auth guards /api/v1 when set; RBAC then checks per-route permissions.
	Auth *keycloak.AuthMiddleware
	RBAC *keycloak.Enforcer

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logging != nil {
		r.Use(middleware.RequestLogging(cfg.Logger.Named("http"), *cfg.Logging))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, nil, "/healthz", "/readyz", "/metrics"))
	}

	// --- Probes and metrics ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Use(cfg.Auth.Handler)
		}
		require := permissionGate(cfg.RBAC)
		registerNetworkRoutes(api, cfg.NetworkHandler, require)
		registerAbbreviationRoutes(api, cfg.AbbreviationHandler, require)
	})

	return r
}

type gate func(keycloak.Permission) func(http.Handler) http.Handler

func permissionGate(rbac *keycloak.Enforcer) gate {
	if rbac == nil {
		return func(keycloak.Permission) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	return rbac.RequirePermission
}

// registerNetworkRoutes mounts network, fragment and scaffold search endpoints.
func registerNetworkRoutes(r chi.Router, h *handlers.NetworkHandler, require gate) {
	if h == nil {
		return
	}
	r.Route("/networks", func(nr chi.Router) {
		nr.With(require(keycloak.PermNetworkRead)).Get("/", h.List)
		nr.With(require(keycloak.PermNetworkBuild)).Post("/", h.Build)
		nr.With(require(keycloak.PermNetworkRead)).Get("/{id}", h.Get)
	})
	r.With(require(keycloak.PermNetworkBuild)).Post("/fragments", h.Fragments)
	r.With(require(keycloak.PermScaffoldSearch)).Get("/scaffolds/search", h.Search)
}

// registerAbbreviationRoutes mounts the condenser endpoints under /abbreviations.
func registerAbbreviationRoutes(r chi.Router, h *handlers.AbbreviationHandler, require gate) {
	if h == nil {
		return
	}
	r.Route("/abbreviations", func(ar chi.Router) {
		ar.Use(require(keycloak.PermAbbreviationUse))
		ar.Get("/", h.List)
		ar.Post("/condense", h.Condense)
	})
}

//Personal.AI order the ending

package rest

import (
	"net/http"

	"agentdev-backend/application/commands/bus"
	querybus "agentdev-backend/application/queries/bus"
	"agentdev-backend/infrastructure/config"
	"agentdev-backend/interfaces/http/rest/handlers"
	"agentdev-backend/interfaces/http/rest/middleware"
	"agentdev-backend/pkg/auth"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/observability"
	"agentdev-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIVersion is the path prefix version and the X-API-Version header value.
const APIVersion = "v1"

// Router creates and configures the HTTP router
type Router struct {
	cfg        *config.Config
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	tokens     *auth.TokenService
	limiter    auth.RateLimiter
	errors     *pkgerrors.ErrorHandler
	collector  *observability.Collector
	tracer     *observability.Tracer
	health     handlers.HealthChecker
	clock      utils.Clock
	logger     *zap.Logger
}

// NewRouter creates a new router instance. collector, tracer, limiter and
// health may be nil.
func NewRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	limiter auth.RateLimiter,
	errs *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	health handlers.HealthChecker,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		commandBus: commandBus,
		queryBus:   queryBus,
		tokens:     tokens,
		limiter:    limiter,
		errors:     errs,
		collector:  collector,
		tracer:     tracer,
		health:     health,
		clock:      utils.SystemClock,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Recover)
	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil && rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.collector))
	}
	router.Use(versionMiddleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Use(middleware.RateLimit(rt.limiter, rt.cfg.RateLimitPerMinute, rt.errors, rt.logger))

	health := handlers.NewHealthHandler(rt.cfg.AppName, rt.cfg.AppVersion, rt.cfg.Environment, rt.health, rt.clock, rt.logger)
	router.Get("/", health.Root)
	router.Get("/health", health.Health)
	if rt.collector != nil && rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Route("/api/"+APIVersion, func(r chi.Router) {
		authHandler := handlers.NewAuthHandler(rt.tokens, rt.errors, rt.logger)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, rt.errors, rt.logger))

			projectHandler := handlers.NewProjectHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.CreateProject)
				r.Get("/", projectHandler.ListProjects)
				r.Get("/stats/summary", projectHandler.ProjectStats)
				r.Get("/{projectID}", projectHandler.GetProject)
				r.Put("/{projectID}", projectHandler.UpdateProject)
				r.Delete("/{projectID}", projectHandler.DeleteProject)
				r.Post("/{projectID}/start", projectHandler.StartProject)
				r.Post("/{projectID}/complete", projectHandler.CompleteProject)
			})

			collab := handlers.NewCollaboratorHandler(rt.errors, rt.clock, rt.logger)
			r.Route("/agents", func(r chi.Router) {
				r.Get("/", collab.ListAgents)
				r.Post("/", collab.CreateAgent)
				r.Get("/{agentID}", collab.GetAgent)
			})
			r.Route("/messages", func(r chi.Router) {
				r.Get("/channels", collab.ListChannels)
				r.Get("/{channelID}", collab.ListMessages)
				r.Post("/", collab.SendMessage)
			})
			r.Route("/artifacts", func(r chi.Router) {
				r.Get("/", collab.ListArtifacts)
				r.Get("/{artifactID}", collab.GetArtifact)
				r.Post("/", collab.CreateArtifact)
			})
		})
	})

	return router
}

// versionMiddleware adds the API version header to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", APIVersion)
		next.ServeHTTP(w, r)
	})
}

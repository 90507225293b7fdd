// Package server provides the HTTP server and routing for the engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/config"
	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
	"github.com/stridelab/cadence/internal/modules/planner"
	plannerhandlers "github.com/stridelab/cadence/internal/modules/planner/handlers"
	"github.com/stridelab/cadence/internal/modules/proposals"
	proposalhandlers "github.com/stridelab/cadence/internal/modules/proposals/handlers"
	"github.com/stridelab/cadence/internal/modules/simulation"
	simulationhandlers "github.com/stridelab/cadence/internal/modules/simulation/handlers"
	"github.com/stridelab/cadence/internal/scheduler"
)

// Deps carries the wired services the router exposes.
type Deps struct {
	DB           *database.DB
	Workouts     *calendar.WorkoutRepository
	CheckIns     *checkins.Repository
	Athletes     *athletes.Repository
	Simulator    *simulation.Simulator
	PlannerSvc   *planner.Service
	ProposalsSvc *proposals.Service
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	deps           Deps
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            log.With().Str("component", "server").Logger(),
		cfg:            cfg,
		deps:           deps,
		systemHandlers: NewSystemHandlers(deps.DB, log),
	}

	s.setupMiddleware(cfg.DevMode, cfg.AllowOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetWeeklyPlanJob registers the plan job for manual triggering via API
func (s *Server) SetWeeklyPlanJob(sched *scheduler.Scheduler, job scheduler.Job) {
	s.systemHandlers.SetWeeklyPlanJob(sched, job)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleSystemHealth)
			r.Post("/jobs/weekly-plan", s.systemHandlers.HandleTriggerWeeklyPlan)
		})

		simulationHandler := simulationhandlers.NewHandler(
			s.deps.Simulator, s.deps.Workouts, s.deps.CheckIns, s.deps.Athletes, s.log)
		simulationHandler.RegisterRoutes(r)

		plannerHandler := plannerhandlers.NewHandler(s.deps.PlannerSvc, s.deps.Athletes, s.log)
		plannerHandler.RegisterRoutes(r)

		proposalHandler := proposalhandlers.NewHandler(s.deps.ProposalsSvc, s.deps.Athletes, s.log)
		proposalHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

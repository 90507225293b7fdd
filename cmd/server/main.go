// Package main is the entry point for the Cadence training engine: scenario
// simulation, guardrailed weekly planning, and plan-change governance behind
// an HTTP API plus a background scheduler.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stridelab/cadence/internal/config"
	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
	"github.com/stridelab/cadence/internal/modules/guardrails"
	"github.com/stridelab/cadence/internal/modules/planner"
	"github.com/stridelab/cadence/internal/modules/proposals"
	"github.com/stridelab/cadence/internal/modules/simulation"
	"github.com/stridelab/cadence/internal/modules/suggestions"
	"github.com/stridelab/cadence/internal/scheduler"
	"github.com/stridelab/cadence/internal/server"
	"github.com/stridelab/cadence/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting Cadence engine")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "cadence",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	workoutRepo := calendar.NewWorkoutRepository(db, log)
	checkInRepo := checkins.NewRepository(db, log)
	athleteRepo := athletes.NewRepository(db, log)
	proposalRepo := proposals.NewRepository(db, log)

	// Domain services
	guardEngine := guardrails.NewEngine(guardrails.DefaultTolerances())
	simulator := simulation.NewSimulator(guardEngine, log)
	generator := planner.NewGenerator(planner.DefaultLibrary(), log)
	plannerSvc := planner.NewService(generator, workoutRepo, checkInRepo, log)
	dispatcher := suggestions.NewDispatcher(db, workoutRepo, log)
	proposalSvc := proposals.NewService(db, proposalRepo, workoutRepo, checkInRepo, dispatcher, log)

	// Background scheduler
	sched := scheduler.New(log)
	weeklyJob := scheduler.NewWeeklyPlanJob(plannerSvc, athleteRepo, log)
	if cfg.PlanJobOn {
		if err := sched.AddJob(cfg.PlanCron, weeklyJob); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.PlanCron).Msg("Failed to register weekly plan job")
		}
	}
	sched.Start()

	srv := server.New(cfg, server.Deps{
		DB:           db,
		Workouts:     workoutRepo,
		CheckIns:     checkInRepo,
		Athletes:     athleteRepo,
		Simulator:    simulator,
		PlannerSvc:   plannerSvc,
		ProposalsSvc: proposalSvc,
	}, log)
	srv.SetWeeklyPlanJob(sched, weeklyJob)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	sched.Stop()

	log.Info().Msg("Cadence engine stopped")
}

// Package handlers provides HTTP handlers for scenario simulation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
	"github.com/stridelab/cadence/internal/modules/guardrails"
	"github.com/stridelab/cadence/internal/modules/simulation"
)

// Trailing windows used when a baseline is derived from stored history.
const (
	historyWeeks  = 6
	readinessDays = 14
)

// Handler handles simulation HTTP requests
type Handler struct {
	simulator *simulation.Simulator
	workouts  *calendar.WorkoutRepository
	checkIns  *checkins.Repository
	athletes  *athletes.Repository
	log       zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(
	simulator *simulation.Simulator,
	workouts *calendar.WorkoutRepository,
	checkIns *checkins.Repository,
	athleteRepo *athletes.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		simulator: simulator,
		workouts:  workouts,
		checkIns:  checkIns,
		athletes:  athleteRepo,
		log:       log.With().Str("handler", "simulation").Logger(),
	}
}

type simulateRequest struct {
	// Baseline is optional; when absent it is derived from the athlete's
	// stored training and check-in history.
	Baseline *simulation.BaselineMetrics `json:"baseline,omitempty"`
	Params   simulation.ScenarioParams   `json:"params"`
	Weeks    int                         `json:"weeks"`
}

// HandleSimulate handles POST /api/v1/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	baseline, notes, err := h.resolveBaseline(userID, req.Baseline)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build simulation baseline")
		writeError(w, http.StatusInternalServerError, "failed to build baseline")
		return
	}

	output, err := h.simulator.Simulate(baseline, req.Params, req.Weeks)
	if err != nil {
		if errors.Is(err, simulation.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Simulation failed")
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"baseline":      baseline,
			"baselineNotes": notes,
			"result":        output,
		},
	})
}

type compareRequest struct {
	Baseline *simulation.BaselineMetrics `json:"baseline,omitempty"`
	Presets  []string                    `json:"presets"`
}

// HandleCompare handles POST /api/v1/simulate/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	names := req.Presets
	if len(names) == 0 {
		// Default to every built-in preset, ranked
		for name := range simulation.Presets() {
			names = append(names, name)
		}
	}

	baseline, notes, err := h.resolveBaseline(userID, req.Baseline)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build simulation baseline")
		writeError(w, http.StatusInternalServerError, "failed to build baseline")
		return
	}

	comparisons, err := h.simulator.Compare(baseline, names)
	if err != nil {
		if errors.Is(err, simulation.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Scenario comparison failed")
		writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"baseline":      baseline,
			"baselineNotes": notes,
			"comparisons":   comparisons,
		},
	})
}

// HandleListPresets handles GET /api/v1/simulate/presets
func (h *Handler) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": simulation.Presets()})
}

// resolveBaseline uses the caller-supplied baseline when present, otherwise
// derives one from stored weekly load and readiness history.
func (h *Handler) resolveBaseline(userID string, explicit *simulation.BaselineMetrics) (simulation.BaselineMetrics, []string, error) {
	if explicit != nil {
		return *explicit, nil, nil
	}

	now := time.Now()
	weeklyTSS, err := h.workouts.WeeklyCompletedTSS(userID, now, historyWeeks)
	if err != nil {
		return simulation.BaselineMetrics{}, nil, err
	}
	readiness, err := h.checkIns.ReadinessHistory(userID, now, readinessDays)
	if err != nil {
		return simulation.BaselineMetrics{}, nil, err
	}

	// No stored profile is fine; any other load failure is not.
	mode := guardrails.ModeCompetitive
	profile, err := h.athletes.Get(userID)
	switch {
	case err == nil:
		mode = profile.IdentityMode
	case !errors.Is(err, athletes.ErrNotFound):
		return simulation.BaselineMetrics{}, nil, err
	}

	baseline, notes := simulation.BuildBaseline(weeklyTSS, readiness, mode)
	return baseline, notes, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

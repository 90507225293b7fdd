// Package handlers provides HTTP handlers for weekly plan generation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/planner"
)

// Handler handles plan generation HTTP requests
type Handler struct {
	service  *planner.Service
	athletes *athletes.Repository
	log      zerolog.Logger
}

// NewHandler creates a new planner handler
func NewHandler(service *planner.Service, athleteRepo *athletes.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		athletes: athleteRepo,
		log:      log.With().Str("handler", "planner").Logger(),
	}
}

type generateRequest struct {
	WeekStart string `json:"weekStart"` // YYYY-MM-DD
	Persist   bool   `json:"persist"`
}

// HandleGenerate handles POST /api/v1/plan/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	weekStart, err := calendar.ParseDateOnly(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.athletes.Get(userID)
	if errors.Is(err, athletes.ErrNotFound) {
		writeError(w, http.StatusNotFound, "athlete profile not found")
		return
	} else if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load athlete profile")
		writeError(w, http.StatusInternalServerError, "failed to load athlete profile")
		return
	}

	result, err := h.service.GenerateWeek(planner.AthleteInput{
		UserID:          profile.UserID,
		Sport:           profile.Sport,
		Level:           profile.Level,
		WeeklyHoursGoal: profile.WeeklyHoursGoal,
	}, weekStart, time.Now(), req.Persist)
	if err != nil {
		if errors.Is(err, planner.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Plan generation failed")
		writeError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

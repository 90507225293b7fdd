// Package handlers provides HTTP handlers for the proposal workflow.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/proposals"
	"github.com/stridelab/cadence/internal/modules/suggestions"
)

// Handler handles proposal HTTP requests
type Handler struct {
	service  *proposals.Service
	athletes *athletes.Repository
	log      zerolog.Logger
}

// NewHandler creates a new proposal handler
func NewHandler(service *proposals.Service, athleteRepo *athletes.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		athletes: athleteRepo,
		log:      log.With().Str("handler", "proposals").Logger(),
	}
}

type submitRequest struct {
	Payload    json.RawMessage `json:"payload"`
	Summary    string          `json:"summary"`
	SourceType string          `json:"sourceType"`
	Confidence float64         `json:"confidence"`
	WorkoutID  string          `json:"workoutId"`
	CheckInID  string          `json:"checkInId"`
}

// HandleSubmit handles POST /api/v1/proposals
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload, err := suggestions.Decode(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.athletes.Get(userID)
	if errors.Is(err, athletes.ErrNotFound) {
		// No stored profile means no lock preference; treat the plan as open
		profile = &athletes.Profile{UserID: userID, Rigidity: calendar.RigidityFlexibleWeek}
	} else if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load athlete profile")
		writeError(w, http.StatusInternalServerError, "failed to load athlete profile")
		return
	}

	result, err := h.service.Submit(*profile, payload, proposals.SubmitMeta{
		Summary:    req.Summary,
		SourceType: proposals.SourceType(req.SourceType),
		Confidence: req.Confidence,
		WorkoutID:  req.WorkoutID,
		CheckInID:  req.CheckInID,
	}, time.Now())
	if err != nil {
		h.writeDomainError(w, userID, err)
		return
	}

	status := http.StatusOK
	if !result.Applied {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{"data": result})
}

// HandleList handles GET /api/v1/proposals
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	status := proposals.Status(r.URL.Query().Get("status"))
	list, err := h.service.List(userID, status)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list proposals")
		writeError(w, http.StatusInternalServerError, "failed to list proposals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"proposals": list,
			"count":     len(list),
		},
	})
}

type decideRequest struct {
	Decision string `json:"decision"`
}

// HandleDecide handles POST /api/v1/proposals/{id}/decide
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	proposalID := urlParam(r, "id")

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	decision := proposals.Decision(req.Decision)
	if decision != proposals.DecisionAccept && decision != proposals.DecisionDecline {
		writeError(w, http.StatusBadRequest, "decision must be ACCEPT or DECLINE")
		return
	}

	decided, err := h.service.Decide(userID, proposalID, decision, time.Now())
	if err != nil {
		h.writeDomainError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": decided})
}

// writeDomainError maps the typed failure taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, suggestions.ErrValidation), errors.Is(err, suggestions.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, proposals.ErrNotFound), errors.Is(err, calendar.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, proposals.ErrNotOwner), errors.Is(err, calendar.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, proposals.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Str("user_id", userID).Msg("Proposal operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

package proposals

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
	"github.com/stridelab/cadence/internal/modules/suggestions"
)

// SubmitMeta carries the provenance of a submitted change.
type SubmitMeta struct {
	Summary    string
	SourceType SourceType
	Confidence float64
	WorkoutID  string
	CheckInID  string
}

// SubmitResult reports how a submitted change was handled.
type SubmitResult struct {
	Applied  bool      `json:"applied"`
	Proposal *Proposal `json:"proposal,omitempty"`
}

// Service owns the governance gate and the proposal decision workflow.
type Service struct {
	db         *database.DB
	proposals  *Repository
	workouts   *calendar.WorkoutRepository
	checkIns   *checkins.Repository
	dispatcher *suggestions.Dispatcher
	log        zerolog.Logger
}

// NewService creates the proposal service.
func NewService(
	db *database.DB,
	proposals *Repository,
	workouts *calendar.WorkoutRepository,
	checkIns *checkins.Repository,
	dispatcher *suggestions.Dispatcher,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:         db,
		proposals:  proposals,
		workouts:   workouts,
		checkIns:   checkIns,
		dispatcher: dispatcher,
		log:        log.With().Str("service", "proposals").Logger(),
	}
}

// Submit is the governance gate: a change whose affected date falls inside
// the athlete's lock window is queued as a PENDING proposal; anything else
// applies immediately through the dispatcher.
func (s *Service) Submit(profile athletes.Profile, payload suggestions.Payload, meta SubmitMeta, now time.Time) (*SubmitResult, error) {
	gateDate, hasDate, err := s.affectedDate(profile.UserID, payload)
	if err != nil {
		return nil, err
	}

	if hasDate && calendar.IsLocked(gateDate, now, profile.Rigidity) {
		patch, err := suggestions.Encode(payload)
		if err != nil {
			return nil, err
		}
		proposal := &Proposal{
			UserID:     profile.UserID,
			WorkoutID:  meta.WorkoutID,
			CheckInID:  meta.CheckInID,
			SourceType: meta.SourceType,
			Summary:    meta.Summary,
			Patch:      string(patch),
			Confidence: meta.Confidence,
		}
		if err := s.proposals.Create(proposal); err != nil {
			return nil, err
		}
		s.log.Info().
			Str("user_id", profile.UserID).
			Str("proposal_id", proposal.ID).
			Str("kind", string(payload.Kind())).
			Msg("Change gated by lock window, proposal queued")
		return &SubmitResult{Applied: false, Proposal: proposal}, nil
	}

	if err := s.dispatcher.Apply(profile.UserID, payload); err != nil {
		return nil, err
	}
	s.proposals.RecordAudit(profile.UserID, "suggestion_applied", meta.WorkoutID, string(payload.Kind()))
	s.log.Info().
		Str("user_id", profile.UserID).
		Str("kind", string(payload.Kind())).
		Msg("Change applied immediately")
	return &SubmitResult{Applied: true}, nil
}

// Decide resolves a pending proposal. On accept the stored patch is applied
// together with the status flip and check-in mark as one transaction; on
// decline coach-authored proposals clean up still-unconfirmed AI
// placeholders. Audit/analytics side effects fire once, after commit.
func (s *Service) Decide(userID, proposalID string, decision Decision, now time.Time) (*Proposal, error) {
	proposal, err := s.proposals.FindByID(proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.UserID != userID {
		return nil, ErrNotOwner
	}
	if proposal.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	switch decision {
	case DecisionAccept:
		err = s.accept(proposal, now)
	case DecisionDecline:
		err = s.decline(proposal, now)
	default:
		return nil, fmt.Errorf("unknown decision %q", decision)
	}
	if err != nil {
		return nil, err
	}

	// Side effects after the committed mutation; never retried
	action := "proposal_accepted"
	status := StatusAccepted
	if decision == DecisionDecline {
		action = "proposal_declined"
		status = StatusDeclined
	}
	s.proposals.RecordAudit(userID, action, proposal.ID, proposal.Summary)
	s.log.Info().
		Str("user_id", userID).
		Str("proposal_id", proposal.ID).
		Str("decision", string(decision)).
		Str("source", string(proposal.SourceType)).
		Msg("Proposal decided")

	proposal.Status = status
	decidedAt := now
	proposal.DecidedAt = &decidedAt
	return proposal, nil
}

// accept applies the stored patch and flips the proposal in one transaction.
func (s *Service) accept(proposal *Proposal, now time.Time) error {
	payload, err := suggestions.Decode([]byte(proposal.Patch))
	if err != nil {
		return err
	}

	// Re-verify the referenced workout still belongs to the athlete; the
	// calendar may have changed since the proposal was queued.
	if proposal.WorkoutID != "" {
		if _, err := s.workouts.FindByID(s.workouts.Conn(), proposal.WorkoutID, proposal.UserID); err != nil {
			return err
		}
	}

	return s.db.RunInTx(func(tx *sql.Tx) error {
		if err := s.dispatcher.ApplyTx(tx, proposal.UserID, payload); err != nil {
			return err
		}
		if err := s.proposals.MarkDecided(tx, proposal.ID, StatusAccepted, now); err != nil {
			return err
		}
		if proposal.CheckInID != "" {
			err := s.checkIns.MarkAccepted(tx, proposal.CheckInID, proposal.UserID)
			if err != nil && !errors.Is(err, checkins.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

// decline flips the proposal and cleans up coach-rejected AI placeholders.
func (s *Service) decline(proposal *Proposal, now time.Time) error {
	return s.db.RunInTx(func(tx *sql.Tx) error {
		if err := s.proposals.MarkDecided(tx, proposal.ID, StatusDeclined, now); err != nil {
			return err
		}

		if proposal.SourceType == SourceCoach && proposal.WorkoutID != "" {
			w, err := s.workouts.FindByID(tx, proposal.WorkoutID, proposal.UserID)
			switch {
			case err == nil:
				if w.Source == calendar.SourceAI && !w.Confirmed {
					if err := s.workouts.Delete(tx, w.ID); err != nil {
						return err
					}
				}
			case errors.Is(err, calendar.ErrNotFound):
				// Placeholder already gone; nothing to clean up
			default:
				return err
			}
		}

		if proposal.CheckInID != "" {
			err := s.checkIns.MarkOverridden(tx, proposal.CheckInID, proposal.UserID, "Declined")
			if err != nil && !errors.Is(err, checkins.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

// affectedDate finds the calendar date the lock policy should gate on. For
// relocations that is the earlier of the workout's current date and its
// destination: pulling a session off a locked day is as disruptive as
// pushing one onto it.
func (s *Service) affectedDate(userID string, payload suggestions.Payload) (time.Time, bool, error) {
	q := s.workouts.Conn()

	switch v := payload.(type) {
	case *suggestions.AdjustWorkout:
		w, err := s.workouts.FindByID(q, v.WorkoutID, userID)
		if err != nil {
			return time.Time{}, false, err
		}
		return w.Date, true, nil

	case *suggestions.SwapWorkouts:
		return s.relocationDate(q, userID, v.WorkoutID, v.NewDate)

	case *suggestions.MoveWorkout:
		return s.relocationDate(q, userID, v.WorkoutID, v.NewDate)

	case *suggestions.AddRecoveryDay:
		date, err := calendar.ParseDateOnly(v.Date)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", suggestions.ErrValidation, err)
		}
		return date, true, nil

	case *suggestions.RebalanceWeek:
		var earliest time.Time
		found := false
		for _, change := range v.Changes {
			w, err := s.workouts.FindByID(q, change.WorkoutID, userID)
			if errors.Is(err, calendar.ErrNotFound) {
				continue
			}
			if err != nil {
				return time.Time{}, false, err
			}
			if !found || w.Date.Before(earliest) {
				earliest = w.Date
				found = true
			}
		}
		return earliest, found, nil

	default:
		return time.Time{}, false, fmt.Errorf("%w: %q", suggestions.ErrUnknownKind, payload.Kind())
	}
}

func (s *Service) relocationDate(q database.Queryer, userID, workoutID, newDate string) (time.Time, bool, error) {
	w, err := s.workouts.FindByID(q, workoutID, userID)
	if err != nil {
		return time.Time{}, false, err
	}
	target, err := calendar.ParseDateOnly(newDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", suggestions.ErrValidation, err)
	}
	if w.Date.Before(target) {
		return w.Date, true, nil
	}
	return target, true, nil
}

// List returns the athlete's proposals, optionally filtered by status.
func (s *Service) List(userID string, status Status) ([]Proposal, error) {
	return s.proposals.ListByUser(userID, status)
}

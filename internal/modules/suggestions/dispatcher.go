package suggestions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/calendar"
)

// recoveryTemplate describes one replacement placeholder shape.
type recoveryTemplate struct {
	Title       string
	Type        string
	DurationMin int
	TSS         float64
}

// recoveryTemplates maps the addRecoveryDay replacement field to a
// placeholder shape.
var recoveryTemplates = map[string]recoveryTemplate{
	"rest":      {Title: "Rest day", Type: "rest", DurationMin: 0, TSS: 0},
	"walk":      {Title: "Easy walk", Type: "walk", DurationMin: 30, TSS: 15},
	"easy_spin": {Title: "Easy spin", Type: "ride", DurationMin: 40, TSS: 20},
}

// Dispatcher routes validated payloads to their transactional handlers.
type Dispatcher struct {
	db       *database.DB
	workouts *calendar.WorkoutRepository
	log      zerolog.Logger
}

// NewDispatcher creates a suggestion dispatcher.
func NewDispatcher(db *database.DB, workouts *calendar.WorkoutRepository, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		db:       db,
		workouts: workouts,
		log:      log.With().Str("component", "suggestion_dispatcher").Logger(),
	}
}

// Apply runs the payload's handler in its own transaction. Any failure
// aborts before mutation; nothing is retried.
func (d *Dispatcher) Apply(userID string, p Payload) error {
	return d.db.RunInTx(func(tx *sql.Tx) error {
		return d.ApplyTx(tx, userID, p)
	})
}

// ApplyTx runs the payload's handler inside the caller's transaction. The
// proposal workflow uses this to combine patch application with its status
// flip in one atomic unit.
func (d *Dispatcher) ApplyTx(tx database.Queryer, userID string, p Payload) error {
	switch v := p.(type) {
	case *AdjustWorkout:
		return d.applyAdjust(tx, userID, v)
	case *SwapWorkouts:
		// One-way relocation, same mechanics as moveWorkout (see payload doc)
		return d.relocate(tx, userID, v.WorkoutID, v.NewDate)
	case *MoveWorkout:
		return d.relocate(tx, userID, v.WorkoutID, v.NewDate)
	case *AddRecoveryDay:
		return d.applyRecoveryDay(tx, userID, v)
	case *RebalanceWeek:
		return d.applyRebalance(tx, userID, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind())
	}
}

// applyAdjust appends a human-readable delta annotation to the workout's
// notes and structured prescription. Duration and TSS stay untouched.
func (d *Dispatcher) applyAdjust(tx database.Queryer, userID string, p *AdjustWorkout) error {
	w, err := d.workouts.FindByID(tx, p.WorkoutID, userID)
	if err != nil {
		return err
	}

	annotation := buildAdjustAnnotation(p)

	notes := w.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += annotation

	prescription, err := appendPrescriptionAnnotation(w.Prescription, annotation)
	if err != nil {
		return err
	}

	return d.workouts.Annotate(tx, w.ID, notes, prescription)
}

func (d *Dispatcher) relocate(tx database.Queryer, userID, workoutID, newDate string) error {
	w, err := d.workouts.FindByID(tx, workoutID, userID)
	if err != nil {
		return err
	}
	date, err := calendar.ParseDateOnly(newDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return d.workouts.Move(tx, w.ID, date)
}

// applyRecoveryDay finds or creates the recovery placeholder. Re-applying the
// same payload updates the existing workout instead of duplicating it.
func (d *Dispatcher) applyRecoveryDay(tx database.Queryer, userID string, p *AddRecoveryDay) error {
	date, err := calendar.ParseDateOnly(p.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tpl := recoveryTemplates[p.Replacement]

	reason := p.Reason
	if reason == "" {
		reason = "Recovery day inserted to absorb accumulated fatigue"
	}

	existing, err := d.workouts.FindByUserAndDate(tx, userID, date)
	switch {
	case err == nil:
		return d.workouts.ConvertToRecovery(tx, existing.ID,
			tpl.Title, tpl.Type, tpl.DurationMin, tpl.TSS, reason)
	case errors.Is(err, calendar.ErrNotFound):
		return d.workouts.Create(tx, &calendar.Workout{
			UserID:       userID,
			Title:        tpl.Title,
			Type:         tpl.Type,
			Date:         date,
			DurationMin:  tpl.DurationMin,
			Intensity:    calendar.IntensityRecovery,
			Status:       calendar.StatusPlanned,
			Source:       calendar.SourceAI,
			AIReason:     reason,
			AIConfidence: 0.8,
			EstimatedTSS: tpl.TSS,
		})
	default:
		return err
	}
}

// applyRebalance patches each referenced workout; ids that no longer exist
// are skipped silently, ownership violations abort.
func (d *Dispatcher) applyRebalance(tx database.Queryer, userID string, p *RebalanceWeek) error {
	for _, change := range p.Changes {
		_, err := d.workouts.FindByID(tx, change.WorkoutID, userID)
		if errors.Is(err, calendar.ErrNotFound) {
			d.log.Debug().Str("workout_id", change.WorkoutID).Msg("Rebalance skipping missing workout")
			continue
		}
		if err != nil {
			return err
		}

		patch := calendar.FieldPatch{
			Title:        change.Title,
			Type:         change.Type,
			DurationMin:  change.DurationMin,
			EstimatedTSS: change.EstimatedTSS,
		}
		if err := d.workouts.ApplyPatch(tx, change.WorkoutID, patch); err != nil {
			return err
		}
	}
	return nil
}

func buildAdjustAnnotation(p *AdjustWorkout) string {
	var parts []string
	if p.IntensityChange != "" {
		parts = append(parts, fmt.Sprintf("intensity %s", p.IntensityChange))
	}
	if p.VolumeChangePct != 0 {
		parts = append(parts, fmt.Sprintf("volume %+d%%", p.VolumeChangePct))
	}
	annotation := "Suggested adjustment: " + strings.Join(parts, ", ")
	if p.Reason != "" {
		annotation += " (" + p.Reason + ")"
	}
	return annotation
}

// appendPrescriptionAnnotation adds the annotation to the prescription's
// annotations array, preserving whatever structure already exists.
func appendPrescriptionAnnotation(prescription, annotation string) (string, error) {
	fields := map[string]json.RawMessage{}
	if prescription != "" {
		if err := json.Unmarshal([]byte(prescription), &fields); err != nil {
			// A free-form prescription gets wrapped rather than destroyed
			raw, _ := json.Marshal(prescription)
			fields = map[string]json.RawMessage{"original": raw}
		}
	}

	var annotations []string
	if existing, ok := fields["annotations"]; ok {
		if err := json.Unmarshal(existing, &annotations); err != nil {
			annotations = nil
		}
	}
	annotations = append(annotations, annotation)

	encoded, err := json.Marshal(annotations)
	if err != nil {
		return "", fmt.Errorf("failed to encode prescription annotations: %w", err)
	}
	fields["annotations"] = encoded

	result, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode prescription: %w", err)
	}
	return string(result), nil
}

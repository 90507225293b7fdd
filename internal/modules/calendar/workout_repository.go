package calendar

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
)

// WorkoutRepository handles CRUD operations for workouts.
//
// Methods take a database.Queryer so the same code path serves both
// standalone calls (pass Conn()) and transactional flows (pass the *sql.Tx
// owned by the proposal workflow or suggestion dispatcher).
type WorkoutRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db *database.DB, log zerolog.Logger) *WorkoutRepository {
	return &WorkoutRepository{
		db:  db,
		log: log.With().Str("repository", "workout").Logger(),
	}
}

// Conn returns the non-transactional query handle.
func (r *WorkoutRepository) Conn() database.Queryer {
	return r.db.Conn()
}

// FieldPatch is a partial workout update; nil fields are left untouched.
// Only the fields a rebalance may touch are representable.
type FieldPatch struct {
	Title        *string
	Type         *string
	DurationMin  *int
	EstimatedTSS *float64
}

const workoutColumns = `id, user_id, title, type, date, duration_min, intensity, status, source,
	confirmed, ai_reason, ai_confidence, estimated_tss, actual_tss, notes, prescription,
	created_at, updated_at`

// Create inserts a workout, assigning an id and timestamps when missing.
func (r *WorkoutRepository) Create(q database.Queryer, w *Workout) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	_, err := q.Exec(`
		INSERT INTO workouts
		(id, user_id, title, type, date, duration_min, intensity, status, source,
		 confirmed, ai_reason, ai_confidence, estimated_tss, actual_tss, notes, prescription,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID, w.UserID, w.Title, w.Type, w.Date.Unix(), w.DurationMin,
		string(w.Intensity), string(w.Status), string(w.Source),
		boolToInt(w.Confirmed), w.AIReason, w.AIConfidence, w.EstimatedTSS, w.ActualTSS,
		w.Notes, w.Prescription, w.CreatedAt.Unix(), w.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

// FindByID loads a workout and verifies ownership. Missing rows return
// ErrNotFound; rows owned by another athlete return ErrNotOwner.
func (r *WorkoutRepository) FindByID(q database.Queryer, id, userID string) (*Workout, error) {
	row := q.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id)

	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load workout %s: %w", id, err)
	}
	if w.UserID != userID {
		return nil, ErrNotOwner
	}
	return w, nil
}

// FindByUserAndDate returns the athlete's workout on the given local calendar
// day, or ErrNotFound. When several exist, the earliest-created wins.
func (r *WorkoutRepository) FindByUserAndDate(q database.Queryer, userID string, date time.Time) (*Workout, error) {
	dayStart := startOfDay(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	row := q.QueryRow(`
		SELECT `+workoutColumns+`
		FROM workouts
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, dayStart.Unix(), dayEnd.Unix())

	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load workout for %s on %s: %w", userID, date.Format("2006-01-02"), err)
	}
	return w, nil
}

// ListWeek returns the athlete's workouts in [weekStart, weekStart+7d),
// ordered by date.
func (r *WorkoutRepository) ListWeek(q database.Queryer, userID string, weekStart time.Time) ([]Workout, error) {
	from := startOfDay(weekStart)
	to := from.AddDate(0, 0, 7)

	rows, err := q.Query(`
		SELECT `+workoutColumns+`
		FROM workouts
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC, created_at ASC
	`, userID, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list week: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

// Move relocates a workout to a new (already normalized) date.
func (r *WorkoutRepository) Move(q database.Queryer, id string, newDate time.Time) error {
	return r.exec(q, `UPDATE workouts SET date = ?, updated_at = ? WHERE id = ?`,
		newDate.Unix(), time.Now().Unix(), id)
}

// Annotate replaces a workout's free-text notes and structured prescription.
func (r *WorkoutRepository) Annotate(q database.Queryer, id, notes, prescription string) error {
	return r.exec(q, `UPDATE workouts SET notes = ?, prescription = ?, updated_at = ? WHERE id = ?`,
		notes, prescription, time.Now().Unix(), id)
}

// ApplyPatch updates the patchable fields of a workout.
func (r *WorkoutRepository) ApplyPatch(q database.Queryer, id string, patch FieldPatch) error {
	w, err := r.findAny(q, id)
	if err != nil {
		return err
	}

	title, typ := w.Title, w.Type
	duration, tss := w.DurationMin, w.EstimatedTSS
	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Type != nil {
		typ = *patch.Type
	}
	if patch.DurationMin != nil {
		duration = *patch.DurationMin
	}
	if patch.EstimatedTSS != nil {
		tss = *patch.EstimatedTSS
	}

	return r.exec(q, `
		UPDATE workouts SET title = ?, type = ?, duration_min = ?, estimated_tss = ?, updated_at = ?
		WHERE id = ?
	`, title, typ, duration, tss, time.Now().Unix(), id)
}

// ConvertToRecovery rewrites a workout into a recovery placeholder in place,
// preserving its identity and date.
func (r *WorkoutRepository) ConvertToRecovery(q database.Queryer, id, title, typ string, durationMin int, tss float64, reason string) error {
	return r.exec(q, `
		UPDATE workouts
		SET title = ?, type = ?, duration_min = ?, intensity = ?, estimated_tss = ?,
		    source = ?, confirmed = 0, ai_reason = ?, updated_at = ?
		WHERE id = ?
	`, title, typ, durationMin, string(IntensityRecovery), tss, string(SourceAI), reason, time.Now().Unix(), id)
}

// Delete removes a workout.
func (r *WorkoutRepository) Delete(q database.Queryer, id string) error {
	return r.exec(q, `DELETE FROM workouts WHERE id = ?`, id)
}

// LastWeekCompletedTSS sums the completed training stress of the trailing 7
// days. Falls back to a workout's estimate when no actual TSS was recorded.
// The bool reports whether any completed workout existed at all.
func (r *WorkoutRepository) LastWeekCompletedTSS(userID string, now time.Time) (float64, bool, error) {
	from := startOfDay(now).AddDate(0, 0, -7)

	row := r.db.Conn().QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN actual_tss > 0 THEN actual_tss ELSE estimated_tss END), 0)
		FROM workouts
		WHERE user_id = ? AND status = ? AND date >= ? AND date < ?
	`, userID, string(StatusCompleted), from.Unix(), startOfDay(now).AddDate(0, 0, 1).Unix())

	var count int
	var total float64
	if err := row.Scan(&count, &total); err != nil {
		return 0, false, fmt.Errorf("failed to aggregate completed TSS: %w", err)
	}
	return total, count > 0, nil
}

// WeeklyCompletedTSS returns per-week completed training stress for the
// trailing weeks, oldest first. Weeks with no completed workouts contribute
// zero, so the slice always has the requested length when any history exists;
// it is empty only when the athlete has never completed a workout in range.
func (r *WorkoutRepository) WeeklyCompletedTSS(userID string, now time.Time, weeks int) ([]float64, error) {
	rangeStart := startOfDay(now).AddDate(0, 0, -7*weeks)

	rows, err := r.db.Conn().Query(`
		SELECT date, CASE WHEN actual_tss > 0 THEN actual_tss ELSE estimated_tss END
		FROM workouts
		WHERE user_id = ? AND status = ? AND date >= ? AND date < ?
	`, userID, string(StatusCompleted), rangeStart.Unix(), startOfDay(now).AddDate(0, 0, 1).Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to load completed history: %w", err)
	}
	defer rows.Close()

	totals := make([]float64, weeks)
	any := false
	for rows.Next() {
		var date int64
		var tss float64
		if err := rows.Scan(&date, &tss); err != nil {
			return nil, fmt.Errorf("failed to scan completed workout: %w", err)
		}
		idx := int(time.Unix(date, 0).Local().Sub(rangeStart).Hours() / (24 * 7))
		if idx < 0 {
			idx = 0
		}
		if idx >= weeks {
			idx = weeks - 1
		}
		totals[idx] += tss
		any = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !any {
		return nil, nil
	}
	return totals, nil
}

// ReplaceWeekPlan swaps out the week's unconfirmed AI-planned workouts for a
// fresh plan in one transaction. Confirmed or manually created workouts are
// left alone.
func (r *WorkoutRepository) ReplaceWeekPlan(userID string, weekStart time.Time, workouts []Workout) error {
	from := startOfDay(weekStart)
	to := from.AddDate(0, 0, 7)

	return r.db.RunInTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DELETE FROM workouts
			WHERE user_id = ? AND date >= ? AND date < ?
			  AND source = ? AND confirmed = 0 AND status = ?
		`, userID, from.Unix(), to.Unix(), string(SourceAI), string(StatusPlanned))
		if err != nil {
			return fmt.Errorf("failed to clear planned week: %w", err)
		}

		for i := range workouts {
			workouts[i].UserID = userID
			if err := r.Create(tx, &workouts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// findAny loads a workout without an ownership check; callers inside the
// dispatcher have already verified ownership on the entry workout.
func (r *WorkoutRepository) findAny(q database.Queryer, id string) (*Workout, error) {
	row := q.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id)
	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load workout %s: %w", id, err)
	}
	return w, nil
}

func (r *WorkoutRepository) exec(q database.Queryer, query string, args ...any) error {
	res, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("workout update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("workout update failed: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanWorkout.
type scanner interface {
	Scan(dest ...any) error
}

func scanWorkout(s scanner) (*Workout, error) {
	var w Workout
	var date, createdAt, updatedAt int64
	var confirmed int
	var intensity, status, source string

	err := s.Scan(
		&w.ID, &w.UserID, &w.Title, &w.Type, &date, &w.DurationMin,
		&intensity, &status, &source, &confirmed,
		&w.AIReason, &w.AIConfidence, &w.EstimatedTSS, &w.ActualTSS,
		&w.Notes, &w.Prescription, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Date = time.Unix(date, 0).Local()
	w.CreatedAt = time.Unix(createdAt, 0).Local()
	w.UpdatedAt = time.Unix(updatedAt, 0).Local()
	w.Confirmed = confirmed != 0
	w.Intensity = Intensity(intensity)
	w.Status = Status(status)
	w.Source = Source(source)

	return &w, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

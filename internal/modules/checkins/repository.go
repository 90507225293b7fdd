// Package checkins stores daily athlete check-ins: readiness scores and
// session feedback. The proposal workflow marks check-ins accepted or
// overridden; the planner reads readiness and feedback aggregates.
package checkins

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
)

// ErrNotFound marks a missing check-in.
var ErrNotFound = errors.New("check-in not found")

// Feedback values an athlete can report on a completed session.
const (
	FeedbackTooEasy   = "too_easy"
	FeedbackJustRight = "just_right"
	FeedbackTooHard   = "too_hard"
)

// Check-in lifecycle states.
const (
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusOverridden = "overridden"
)

// CheckIn is one daily check-in row.
type CheckIn struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Date           time.Time `json:"date"`
	Readiness      float64   `json:"readiness"`
	Feedback       string    `json:"feedback"`
	Status         string    `json:"status"`
	OverrideReason string    `json:"overrideReason"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Repository handles check-in persistence.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new check-in repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "checkin").Logger(),
	}
}

// Create inserts a check-in, assigning an id when missing.
func (r *Repository) Create(c *CheckIn) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := r.db.Conn().Exec(`
		INSERT INTO check_ins (id, user_id, date, readiness, feedback, status, override_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.Date.Unix(), c.Readiness, c.Feedback, c.Status, c.OverrideReason, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

// FindByID loads one check-in.
func (r *Repository) FindByID(id string) (*CheckIn, error) {
	row := r.db.Conn().QueryRow(`
		SELECT id, user_id, date, readiness, feedback, status, override_reason, created_at
		FROM check_ins WHERE id = ?
	`, id)

	var c CheckIn
	var date, createdAt int64
	err := row.Scan(&c.ID, &c.UserID, &date, &c.Readiness, &c.Feedback, &c.Status, &c.OverrideReason, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load check-in %s: %w", id, err)
	}
	c.Date = time.Unix(date, 0).Local()
	c.CreatedAt = time.Unix(createdAt, 0).Local()
	return &c, nil
}

// AverageReadiness returns the mean readiness over the trailing window. The
// bool reports whether any check-ins existed.
func (r *Repository) AverageReadiness(userID string, now time.Time, days int) (float64, bool, error) {
	from := now.AddDate(0, 0, -days)

	row := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(readiness), 0)
		FROM check_ins
		WHERE user_id = ? AND date >= ? AND date <= ?
	`, userID, from.Unix(), now.Unix())

	var count int
	var avg float64
	if err := row.Scan(&count, &avg); err != nil {
		return 0, false, fmt.Errorf("failed to average readiness: %w", err)
	}
	return avg, count > 0, nil
}

// ReadinessHistory returns the raw readiness scores of the trailing window,
// oldest first.
func (r *Repository) ReadinessHistory(userID string, now time.Time, days int) ([]float64, error) {
	from := now.AddDate(0, 0, -days)

	rows, err := r.db.Conn().Query(`
		SELECT readiness FROM check_ins
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, userID, from.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to load readiness history: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan readiness: %w", err)
		}
		scores = append(scores, v)
	}
	return scores, rows.Err()
}

// TooHardRatio returns the fraction of recent feedback reporting "too hard".
// The bool reports whether any feedback existed.
func (r *Repository) TooHardRatio(userID string, now time.Time, days int) (float64, bool, error) {
	from := now.AddDate(0, 0, -days)

	row := r.db.Conn().QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN feedback = ? THEN 1 ELSE 0 END), 0)
		FROM check_ins
		WHERE user_id = ? AND feedback != '' AND date >= ? AND date <= ?
	`, FeedbackTooHard, userID, from.Unix(), now.Unix())

	var total, tooHard int
	if err := row.Scan(&total, &tooHard); err != nil {
		return 0, false, fmt.Errorf("failed to compute feedback ratio: %w", err)
	}
	if total == 0 {
		return 0, false, nil
	}
	return float64(tooHard) / float64(total), true, nil
}

// MarkAccepted flips a check-in to accepted inside the caller's transaction.
func (r *Repository) MarkAccepted(q database.Queryer, id, userID string) error {
	return r.mark(q, id, userID, StatusAccepted, "")
}

// MarkOverridden flips a check-in to overridden with a reason inside the
// caller's transaction.
func (r *Repository) MarkOverridden(q database.Queryer, id, userID, reason string) error {
	return r.mark(q, id, userID, StatusOverridden, reason)
}

func (r *Repository) mark(q database.Queryer, id, userID, status, reason string) error {
	res, err := q.Exec(`
		UPDATE check_ins SET status = ?, override_reason = ? WHERE id = ? AND user_id = ?
	`, status, reason, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark check-in %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark check-in %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

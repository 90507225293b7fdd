package proposals

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
)

// Repository handles proposal persistence and the audit log.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new proposal repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "proposal").Logger(),
	}
}

const proposalColumns = `id, user_id, workout_id, check_in_id, source_type, summary, patch,
	confidence, status, created_at, decided_at`

// Create inserts a proposal in PENDING state.
func (r *Repository) Create(p *Proposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Status = StatusPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := r.db.Conn().Exec(`
		INSERT INTO proposals
		(id, user_id, workout_id, check_in_id, source_type, summary, patch, confidence, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.WorkoutID, p.CheckInID, string(p.SourceType),
		p.Summary, p.Patch, p.Confidence, string(p.Status), p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// FindByID loads one proposal regardless of owner; the service layer checks
// ownership so it can report ErrNotOwner distinctly.
func (r *Repository) FindByID(id string) (*Proposal, error) {
	row := r.db.Conn().QueryRow(`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)

	p, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}
	return p, nil
}

// ListByUser returns the athlete's proposals, optionally filtered by status,
// newest first.
func (r *Repository) ListByUser(userID string, status Status) ([]Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

// MarkDecided flips a PENDING proposal to its terminal state inside the
// caller's transaction. The status guard in the WHERE clause makes the flip
// safe against concurrent decisions: the loser of the race affects zero rows
// and gets ErrAlreadyDecided.
func (r *Repository) MarkDecided(q database.Queryer, id string, status Status, decidedAt time.Time) error {
	res, err := q.Exec(`
		UPDATE proposals SET status = ?, decided_at = ? WHERE id = ? AND status = ?
	`, string(status), decidedAt.Unix(), id, string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to decide proposal %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decide proposal %s: %w", id, err)
	}
	if affected == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

// RecordAudit appends one audit row. Called after the decision transaction
// commits; failures are logged, never propagated, and never retried.
func (r *Repository) RecordAudit(userID, action, entityID, detail string) {
	_, err := r.db.Conn().Exec(`
		INSERT INTO audit_log (id, user_id, action, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), userID, action, entityID, detail, time.Now().Unix())
	if err != nil {
		r.log.Error().Err(err).Str("action", action).Msg("Failed to record audit entry")
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(s scanner) (*Proposal, error) {
	var p Proposal
	var sourceType, status string
	var createdAt int64
	var decidedAt sql.NullInt64

	err := s.Scan(&p.ID, &p.UserID, &p.WorkoutID, &p.CheckInID, &sourceType,
		&p.Summary, &p.Patch, &p.Confidence, &status, &createdAt, &decidedAt)
	if err != nil {
		return nil, err
	}

	p.SourceType = SourceType(sourceType)
	p.Status = Status(status)
	p.CreatedAt = time.Unix(createdAt, 0).Local()
	if decidedAt.Valid {
		t := time.Unix(decidedAt.Int64, 0).Local()
		p.DecidedAt = &t
	}
	return &p, nil
}

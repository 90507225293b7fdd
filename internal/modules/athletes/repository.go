// Package athletes stores the per-athlete profile inputs the engine reads:
// sport, experience, identity mode, plan rigidity. The profile itself is
// owned by the application layer; this repository is the engine's read/write
// window onto it.
package athletes

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/guardrails"
	"github.com/stridelab/cadence/internal/modules/planner"
)

// ErrNotFound marks a missing athlete profile.
var ErrNotFound = errors.New("athlete profile not found")

// Profile holds the engine-relevant athlete configuration.
type Profile struct {
	UserID          string                  `json:"userId"`
	Sport           planner.Sport           `json:"sport"`
	Level           planner.ExperienceLevel `json:"level"`
	WeeklyHoursGoal float64                 `json:"weeklyHoursGoal"`
	IdentityMode    guardrails.IdentityMode `json:"identityMode"`
	Rigidity        calendar.Rigidity       `json:"rigidity"`
	PlannerEnabled  bool                    `json:"plannerEnabled"`
}

// Repository handles athlete profile persistence.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new athlete repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "athlete").Logger(),
	}
}

// Get loads one profile.
func (r *Repository) Get(userID string) (*Profile, error) {
	row := r.db.Conn().QueryRow(`
		SELECT user_id, sport, level, weekly_hours_goal, identity_mode, rigidity, planner_enabled
		FROM athletes WHERE user_id = ?
	`, userID)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load athlete %s: %w", userID, err)
	}
	return p, nil
}

// Upsert inserts or replaces a profile.
func (r *Repository) Upsert(p Profile) error {
	_, err := r.db.Conn().Exec(`
		INSERT INTO athletes (user_id, sport, level, weekly_hours_goal, identity_mode, rigidity, planner_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sport = excluded.sport,
			level = excluded.level,
			weekly_hours_goal = excluded.weekly_hours_goal,
			identity_mode = excluded.identity_mode,
			rigidity = excluded.rigidity,
			planner_enabled = excluded.planner_enabled
	`, p.UserID, string(p.Sport), string(p.Level), p.WeeklyHoursGoal,
		string(p.IdentityMode), string(p.Rigidity), boolToInt(p.PlannerEnabled))
	if err != nil {
		return fmt.Errorf("failed to upsert athlete %s: %w", p.UserID, err)
	}
	return nil
}

// ListPlannerEnabled returns every athlete with the scheduled planner on.
func (r *Repository) ListPlannerEnabled() ([]Profile, error) {
	rows, err := r.db.Conn().Query(`
		SELECT user_id, sport, level, weekly_hours_goal, identity_mode, rigidity, planner_enabled
		FROM athletes WHERE planner_enabled = 1
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list planner-enabled athletes: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var p Profile
	var sport, level, mode, rigidity string
	var enabled int

	if err := s.Scan(&p.UserID, &sport, &level, &p.WeeklyHoursGoal, &mode, &rigidity, &enabled); err != nil {
		return nil, err
	}

	p.Sport = planner.Sport(sport)
	p.Level = planner.ExperienceLevel(level)
	p.IdentityMode = guardrails.IdentityMode(mode)
	p.Rigidity = calendar.Rigidity(rigidity)
	p.PlannerEnabled = enabled != 0
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package calendar owns persisted workouts and the plan-lock policy.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Typed failures for workout lookups. Both abort with no partial writes; they
// stay distinct so handlers can map them to 404 vs 403.
var (
	ErrNotFound = errors.New("workout not found")
	ErrNotOwner = errors.New("workout belongs to another athlete")
)

// Intensity of a workout.
type Intensity string

const (
	IntensityEasy     Intensity = "easy"
	IntensityModerate Intensity = "moderate"
	IntensityHard     Intensity = "hard"
	IntensityRecovery Intensity = "recovery"
)

// Status of a workout.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
)

// Source records who authored a workout.
type Source string

const (
	SourceAI     Source = "ai"
	SourceCoach  Source = "coach"
	SourceManual Source = "manual"
)

// Workout is a persisted calendar entry.
type Workout struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Date         time.Time `json:"date"`
	DurationMin  int       `json:"durationMin"`
	Intensity    Intensity `json:"intensity"`
	Status       Status    `json:"status"`
	Source       Source    `json:"source"`
	Confirmed    bool      `json:"confirmed"`
	AIReason     string    `json:"aiReason"`
	AIConfidence float64   `json:"aiConfidence"`
	EstimatedTSS float64   `json:"estimatedTss"`
	ActualTSS    float64   `json:"actualTss"`
	Notes        string    `json:"notes"`
	Prescription string    `json:"prescription"` // structured prescription JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Rigidity is the athlete's plan-lock configuration.
type Rigidity string

const (
	RigidityLockedToday  Rigidity = "LOCKED_TODAY"
	RigidityLocked1Day   Rigidity = "LOCKED_1_DAY"
	RigidityLocked2Days  Rigidity = "LOCKED_2_DAYS"
	RigidityLocked3Days  Rigidity = "LOCKED_3_DAYS"
	RigidityFlexibleWeek Rigidity = "FLEXIBLE_WEEK"
)

// LockDays returns the number of extra locked days beyond today. The bool is
// false for FLEXIBLE_WEEK, which has no lock window at all.
func (r Rigidity) LockDays() (int, bool) {
	switch r {
	case RigidityLockedToday:
		return 0, true
	case RigidityLocked1Day:
		return 1, true
	case RigidityLocked2Days:
		return 2, true
	case RigidityLocked3Days:
		return 3, true
	default:
		return 0, false
	}
}

// NormalizeToLocalNoon pins a timestamp to noon of its local calendar day.
// Date-only inputs stored at midnight shift a day when rendered in a nearby
// timezone; noon is safely inside the day in every plausible offset.
func NormalizeToLocalNoon(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.Local)
}

// ParseDateOnly parses a YYYY-MM-DD string into the local-noon timestamp for
// that calendar day.
func ParseDateOnly(s string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return NormalizeToLocalNoon(parsed), nil
}

// Package planner assembles rule-based weekly training plans bounded by the
// athlete's recent completed load.
package planner

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks malformed plan-generation inputs.
var ErrValidation = errors.New("validation error")

// Sport identifies the sport a plan is generated for.
type Sport string

const (
	SportRun       Sport = "run"
	SportRide      Sport = "ride"
	SportSwim      Sport = "swim"
	SportStrength  Sport = "strength"
	SportTriathlon Sport = "triathlon"
)

// ExperienceLevel scales workout durations.
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
	LevelExpert       ExperienceLevel = "expert"
)

// experienceMultipliers scale template durations per level.
var experienceMultipliers = map[ExperienceLevel]float64{
	LevelBeginner:     0.7,
	LevelIntermediate: 0.9,
	LevelAdvanced:     1.1,
	LevelExpert:       1.3,
}

// Context carries everything the generator needs for one athlete-week.
// It is assembled by the caller from stored workouts, check-ins and profile.
type Context struct {
	UserID          string
	Sport           Sport
	Level           ExperienceLevel
	WeeklyHoursGoal float64
	WeekStart       time.Time // first day of the generated week

	// Recent history. Has* flags distinguish "no data" from zero values.
	LastWeekTSS  float64
	HasHistory   bool
	AvgReadiness float64
	HasReadiness bool
	TooHardRatio float64 // fraction of recent feedback reporting "too hard"
	HasFeedback  bool
}

// Validate checks the generation context.
func (c Context) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	switch c.Sport {
	case SportRun, SportRide, SportSwim, SportStrength, SportTriathlon:
	default:
		return fmt.Errorf("%w: unknown sport %q", ErrValidation, c.Sport)
	}
	if _, ok := experienceMultipliers[c.Level]; !ok {
		return fmt.Errorf("%w: unknown experience level %q", ErrValidation, c.Level)
	}
	if c.WeeklyHoursGoal < 0 || c.WeeklyHoursGoal > 40 {
		return fmt.Errorf("%w: weeklyHoursGoal %.1f outside [0, 40]", ErrValidation, c.WeeklyHoursGoal)
	}
	if c.WeekStart.IsZero() {
		return fmt.Errorf("%w: weekStart is required", ErrValidation)
	}
	return nil
}

// PlannedWorkout is one generated calendar entry. It becomes a persisted
// workout only once a storage collaborator writes it.
type PlannedWorkout struct {
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Date         time.Time `json:"date"`
	DurationMin  int       `json:"durationMin"`
	Intensity    string    `json:"intensity"` // easy, moderate, hard, recovery
	AIReason     string    `json:"aiReason"`
	AIConfidence float64   `json:"aiConfidence"`
	EstimatedTSS float64   `json:"estimatedTss"`
}

// Result is the full output of one generation run.
type Result struct {
	Workouts      []PlannedWorkout `json:"workouts"`
	Warnings      []string         `json:"warnings"`
	Summary       string           `json:"summary"`
	TotalTSS      float64          `json:"totalTss"`
	MaxAllowedTSS float64          `json:"maxAllowedTss"`
}

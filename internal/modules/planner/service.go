package planner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
)

// Trailing windows for the history aggregates feeding the generator.
const (
	readinessWindowDays = 7
	feedbackWindowDays  = 14
)

// AthleteInput is the profile slice the planner needs. Callers map it from
// the stored athlete profile; keeping it local avoids a dependency cycle
// with the profile package, which reuses the planner's sport and level types.
type AthleteInput struct {
	UserID          string
	Sport           Sport
	Level           ExperienceLevel
	WeeklyHoursGoal float64
}

// Service assembles generation contexts from stored history and optionally
// persists the generated week.
type Service struct {
	generator *Generator
	workouts  *calendar.WorkoutRepository
	checkIns  *checkins.Repository
	log       zerolog.Logger
}

// NewService creates the planner service.
func NewService(generator *Generator, workouts *calendar.WorkoutRepository, checkIns *checkins.Repository, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		workouts:  workouts,
		checkIns:  checkIns,
		log:       log.With().Str("service", "planner").Logger(),
	}
}

// GenerateWeek builds a plan for the week starting at weekStart, grounded in
// the athlete's trailing completed load and check-in history. With persist
// set, the week's unconfirmed AI-planned workouts are replaced by the new
// plan in one transaction; confirmed and manually created workouts survive.
func (s *Service) GenerateWeek(athlete AthleteInput, weekStart, now time.Time, persist bool) (*Result, error) {
	ctx := Context{
		UserID:          athlete.UserID,
		Sport:           athlete.Sport,
		Level:           athlete.Level,
		WeeklyHoursGoal: athlete.WeeklyHoursGoal,
		WeekStart:       calendar.NormalizeToLocalNoon(weekStart),
	}

	lastTSS, hasHistory, err := s.workouts.LastWeekCompletedTSS(athlete.UserID, now)
	if err != nil {
		return nil, err
	}
	ctx.LastWeekTSS, ctx.HasHistory = lastTSS, hasHistory

	avgReadiness, hasReadiness, err := s.checkIns.AverageReadiness(athlete.UserID, now, readinessWindowDays)
	if err != nil {
		return nil, err
	}
	ctx.AvgReadiness, ctx.HasReadiness = avgReadiness, hasReadiness

	tooHard, hasFeedback, err := s.checkIns.TooHardRatio(athlete.UserID, now, feedbackWindowDays)
	if err != nil {
		return nil, err
	}
	ctx.TooHardRatio, ctx.HasFeedback = tooHard, hasFeedback

	result, err := s.generator.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if persist {
		if err := s.workouts.ReplaceWeekPlan(athlete.UserID, ctx.WeekStart, toCalendarWorkouts(result.Workouts)); err != nil {
			return nil, err
		}
		s.log.Info().
			Str("user_id", athlete.UserID).
			Str("week_start", ctx.WeekStart.Format("2006-01-02")).
			Int("workouts", len(result.Workouts)).
			Msg("Weekly plan persisted")
	}

	return result, nil
}

func toCalendarWorkouts(planned []PlannedWorkout) []calendar.Workout {
	out := make([]calendar.Workout, 0, len(planned))
	for _, p := range planned {
		out = append(out, calendar.Workout{
			Title:        p.Title,
			Type:         p.Type,
			Date:         calendar.NormalizeToLocalNoon(p.Date),
			DurationMin:  p.DurationMin,
			Intensity:    calendar.Intensity(p.Intensity),
			Status:       calendar.StatusPlanned,
			Source:       calendar.SourceAI,
			Confirmed:    false,
			AIReason:     p.AIReason,
			AIConfidence: p.AIConfidence,
			EstimatedTSS: p.EstimatedTSS,
		})
	}
	return out
}

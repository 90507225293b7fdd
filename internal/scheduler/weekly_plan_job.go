package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/planner"
)

// WeeklyPlanJob generates and persists next week's plan for every athlete
// with the planner enabled. Per-athlete failures are logged and skipped so
// one bad profile cannot starve the rest of the batch.
type WeeklyPlanJob struct {
	planner  *planner.Service
	athletes *athletes.Repository
	log      zerolog.Logger
}

// NewWeeklyPlanJob creates the weekly plan generation job.
func NewWeeklyPlanJob(plannerSvc *planner.Service, athleteRepo *athletes.Repository, log zerolog.Logger) *WeeklyPlanJob {
	return &WeeklyPlanJob{
		planner:  plannerSvc,
		athletes: athleteRepo,
		log:      log.With().Str("job", "weekly_plan").Logger(),
	}
}

// Name returns the job name
func (j *WeeklyPlanJob) Name() string {
	return "weekly_plan"
}

// Run generates next week's plan for all planner-enabled athletes.
func (j *WeeklyPlanJob) Run() error {
	profiles, err := j.athletes.ListPlannerEnabled()
	if err != nil {
		return err
	}

	now := time.Now()
	weekStart := nextMonday(now)

	generated, failed := 0, 0
	for _, p := range profiles {
		_, err := j.planner.GenerateWeek(planner.AthleteInput{
			UserID:          p.UserID,
			Sport:           p.Sport,
			Level:           p.Level,
			WeeklyHoursGoal: p.WeeklyHoursGoal,
		}, weekStart, now, true)
		if err != nil {
			failed++
			j.log.Error().Err(err).Str("user_id", p.UserID).Msg("Plan generation failed for athlete")
			continue
		}
		generated++
	}

	j.log.Info().
		Int("generated", generated).
		Int("failed", failed).
		Str("week_start", weekStart.Format("2006-01-02")).
		Msg("Weekly plan batch finished")

	return nil
}

// nextMonday returns the Monday strictly after now, in local time.
func nextMonday(now time.Time) time.Time {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

package planner

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
)

type plannerFixture struct {
	service  *Service
	workouts *calendar.WorkoutRepository
	checkIns *checkins.Repository
}

func newPlannerFixture(t *testing.T) *plannerFixture {
	db := database.NewTestDB(t)
	log := zerolog.Nop()
	workouts := calendar.NewWorkoutRepository(db, log)
	checkIns := checkins.NewRepository(db, log)
	generator := NewGenerator(DefaultLibrary(), log)
	return &plannerFixture{
		service:  NewService(generator, workouts, checkIns, log),
		workouts: workouts,
		checkIns: checkIns,
	}
}

func (f *plannerFixture) seedCompleted(t *testing.T, userID string, daysAgo int, tss float64, now time.Time) {
	t.Helper()
	w := &calendar.Workout{
		UserID:    userID,
		Title:     "Logged session",
		Type:      "run",
		Date:      calendar.NormalizeToLocalNoon(now.AddDate(0, 0, -daysAgo)),
		Status:    calendar.StatusCompleted,
		Source:    calendar.SourceManual,
		ActualTSS: tss,
	}
	require.NoError(t, f.workouts.Create(f.workouts.Conn(), w))
}

func athleteInput() AthleteInput {
	return AthleteInput{
		UserID:          "athlete-1",
		Sport:           SportRun,
		Level:           LevelIntermediate,
		WeeklyHoursGoal: 8,
	}
}

func TestGenerateWeek_CeilingFromStoredHistory(t *testing.T) {
	f := newPlannerFixture(t)
	now := time.Now()
	f.seedCompleted(t, "athlete-1", 2, 120, now)
	f.seedCompleted(t, "athlete-1", 4, 80, now)

	result, err := f.service.GenerateWeek(athleteInput(), now.AddDate(0, 0, 7), now, false)
	require.NoError(t, err)

	assert.InDelta(t, 230.0, result.MaxAllowedTSS, 0.001, "200 completed TSS grows 15%")
}

func TestGenerateWeek_LowReadinessShrinksCeiling(t *testing.T) {
	f := newPlannerFixture(t)
	now := time.Now()
	f.seedCompleted(t, "athlete-1", 3, 200, now)
	require.NoError(t, f.checkIns.Create(&checkins.CheckIn{
		UserID: "athlete-1", Date: now.AddDate(0, 0, -1), Readiness: 40,
	}))

	result, err := f.service.GenerateWeek(athleteInput(), now.AddDate(0, 0, 7), now, false)
	require.NoError(t, err)

	assert.InDelta(t, 207.0, result.MaxAllowedTSS, 0.001, "low readiness takes a further 10%")
}

func TestGenerateWeek_PersistWritesUnconfirmedAIPlan(t *testing.T) {
	f := newPlannerFixture(t)
	now := time.Now()
	weekStart := calendar.NormalizeToLocalNoon(now.AddDate(0, 0, 7))

	result, err := f.service.GenerateWeek(athleteInput(), weekStart, now, true)
	require.NoError(t, err)
	require.NotEmpty(t, result.Workouts)

	stored, err := f.workouts.ListWeek(f.workouts.Conn(), "athlete-1", weekStart)
	require.NoError(t, err)
	require.Len(t, stored, len(result.Workouts))
	for _, w := range stored {
		assert.Equal(t, calendar.SourceAI, w.Source)
		assert.False(t, w.Confirmed)
		assert.Equal(t, calendar.StatusPlanned, w.Status)
		assert.Equal(t, 12, w.Date.Hour(), "planned dates normalize to local noon")
	}
}

func TestGenerateWeek_RegenerationReplacesOnlyAIPlan(t *testing.T) {
	f := newPlannerFixture(t)
	now := time.Now()
	weekStart := calendar.NormalizeToLocalNoon(now.AddDate(0, 0, 7))

	// An athlete-authored workout inside the target week must survive
	manual := &calendar.Workout{
		UserID: "athlete-1",
		Title:  "Club ride",
		Type:   "ride",
		Date:   weekStart.AddDate(0, 0, 2),
		Status: calendar.StatusPlanned,
		Source: calendar.SourceManual,
	}
	require.NoError(t, f.workouts.Create(f.workouts.Conn(), manual))

	first, err := f.service.GenerateWeek(athleteInput(), weekStart, now, true)
	require.NoError(t, err)
	_, err = f.service.GenerateWeek(athleteInput(), weekStart, now, true)
	require.NoError(t, err)

	stored, err := f.workouts.ListWeek(f.workouts.Conn(), "athlete-1", weekStart)
	require.NoError(t, err)
	assert.Len(t, stored, len(first.Workouts)+1, "regeneration must not stack AI plans")

	survived := false
	for _, w := range stored {
		if w.ID == manual.ID {
			survived = true
		}
	}
	assert.True(t, survived, "manual workouts survive regeneration")
}

package proposals

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/cadence/internal/database"
	"github.com/stridelab/cadence/internal/modules/athletes"
	"github.com/stridelab/cadence/internal/modules/calendar"
	"github.com/stridelab/cadence/internal/modules/checkins"
	"github.com/stridelab/cadence/internal/modules/suggestions"
)

type serviceFixture struct {
	db       *database.DB
	service  *Service
	workouts *calendar.WorkoutRepository
	checkIns *checkins.Repository
	repo     *Repository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	db := database.NewTestDB(t)
	log := zerolog.Nop()
	workouts := calendar.NewWorkoutRepository(db, log)
	checkIns := checkins.NewRepository(db, log)
	repo := NewRepository(db, log)
	dispatcher := suggestions.NewDispatcher(db, workouts, log)
	return &serviceFixture{
		db:       db,
		service:  NewService(db, repo, workouts, checkIns, dispatcher, log),
		workouts: workouts,
		checkIns: checkIns,
		repo:     repo,
	}
}

func (f *serviceFixture) auditCount(t *testing.T, userID, action string) int {
	t.Helper()
	var n int
	err := f.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM audit_log WHERE user_id = ? AND action = ?
	`, userID, action).Scan(&n)
	require.NoError(t, err)
	return n
}

func (f *serviceFixture) seedWorkout(t *testing.T, userID string, date time.Time) *calendar.Workout {
	t.Helper()
	w := &calendar.Workout{
		UserID:       userID,
		Title:        "Tempo run",
		Type:         "run",
		Date:         calendar.NormalizeToLocalNoon(date),
		DurationMin:  50,
		Intensity:    calendar.IntensityModerate,
		Status:       calendar.StatusPlanned,
		Source:       calendar.SourceManual,
		EstimatedTSS: 70,
	}
	require.NoError(t, f.workouts.Create(f.workouts.Conn(), w))
	return w
}

func (f *serviceFixture) seedCheckIn(t *testing.T, userID string) *checkins.CheckIn {
	t.Helper()
	c := &checkins.CheckIn{
		UserID:    userID,
		Date:      time.Now(),
		Readiness: 15,
		Feedback:  checkins.FeedbackTooHard,
	}
	require.NoError(t, f.checkIns.Create(c))
	return c
}

func profileWith(rigidity calendar.Rigidity) athletes.Profile {
	return athletes.Profile{UserID: "athlete-1", Rigidity: rigidity}
}

func dateOnly(d time.Time) string {
	return d.Local().Format("2006-01-02")
}

func TestSubmit_AppliesImmediatelyOutsideLockWindow(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now.AddDate(0, 0, 5))
	target := now.AddDate(0, 0, 6)

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(target)},
		SubmitMeta{Summary: "shift tempo", SourceType: SourceRule, WorkoutID: w.ID}, now)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Nil(t, result.Proposal)

	moved, err := f.workouts.FindByID(f.workouts.Conn(), w.ID, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, target.Day(), moved.Date.Day())

	pending, err := f.repo.ListByUser("athlete-1", StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending, "immediate application must not queue a proposal")
	assert.Equal(t, 1, f.auditCount(t, "athlete-1", "suggestion_applied"))
}

func TestSubmit_GatedChangeIsNotAudited(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	_, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(now.AddDate(0, 0, 10))},
		SubmitMeta{Summary: "shift tempo", SourceType: SourceRule, WorkoutID: w.ID}, now)
	require.NoError(t, err)

	assert.Zero(t, f.auditCount(t, "athlete-1", "suggestion_applied"),
		"a queued proposal is audited at decision time, not at submission")
}

func TestSubmit_QueuesProposalInsideLockWindow(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(now.AddDate(0, 0, 10))},
		SubmitMeta{Summary: "shift tempo", SourceType: SourceDailyCheckIn, WorkoutID: w.ID}, now)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	require.NotNil(t, result.Proposal)
	assert.Equal(t, StatusPending, result.Proposal.Status)

	untouched, err := f.workouts.FindByID(f.workouts.Conn(), w.ID, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.NormalizeToLocalNoon(now).Unix(), untouched.Date.Unix(),
		"gated change must leave the workout alone")

	// The stored patch must round-trip back to a usable payload
	payload, err := suggestions.Decode([]byte(result.Proposal.Patch))
	require.NoError(t, err)
	assert.Equal(t, suggestions.KindMoveWorkout, payload.Kind())
}

func TestSubmit_GatesOnRelocationSourceDate(t *testing.T) {
	// Pulling a workout off a locked day is gated even when the destination
	// is far in the future.
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now.AddDate(0, 0, 1))

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(now.AddDate(0, 0, 14))},
		SubmitMeta{Summary: "push out", SourceType: SourceRule, WorkoutID: w.ID}, now)
	require.NoError(t, err)
	assert.False(t, result.Applied)
}

func TestSubmit_FlexibleWeekNeverGates(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	result, err := f.service.Submit(profileWith(calendar.RigidityFlexibleWeek),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(now.AddDate(0, 0, 2))},
		SubmitMeta{Summary: "shift", SourceType: SourceRule, WorkoutID: w.ID}, now)
	require.NoError(t, err)
	assert.True(t, result.Applied, "FLEXIBLE_WEEK has no lock window")
}

func TestDecide_AcceptAppliesPatchAndMarksCheckIn(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)
	checkIn := f.seedCheckIn(t, "athlete-1")
	target := now.AddDate(0, 0, 9)

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked2Days),
		&suggestions.MoveWorkout{WorkoutID: w.ID, NewDate: dateOnly(target)},
		SubmitMeta{Summary: "shift", SourceType: SourceDailyCheckIn, WorkoutID: w.ID, CheckInID: checkIn.ID}, now)
	require.NoError(t, err)
	require.False(t, result.Applied)

	decided, err := f.service.Decide("athlete-1", result.Proposal.ID, DecisionAccept, now)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	moved, err := f.workouts.FindByID(f.workouts.Conn(), w.ID, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, target.Day(), moved.Date.Day(), "accepting must apply the stored patch")

	stored, err := f.repo.FindByID(result.Proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)

	marked, err := f.checkIns.FindByID(checkIn.ID)
	require.NoError(t, err)
	assert.Equal(t, checkins.StatusAccepted, marked.Status)
}

func TestDecide_SecondDecisionRejected(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	result, err := f.service.Submit(profileWith(calendar.RigidityLockedToday),
		&suggestions.AdjustWorkout{WorkoutID: w.ID, IntensityChange: "easier", Reason: "flat legs"},
		SubmitMeta{Summary: "ease off", SourceType: SourceDailyCheckIn, WorkoutID: w.ID}, now)
	require.NoError(t, err)
	require.False(t, result.Applied)

	_, err = f.service.Decide("athlete-1", result.Proposal.ID, DecisionAccept, now)
	require.NoError(t, err)

	_, err = f.service.Decide("athlete-1", result.Proposal.ID, DecisionAccept, now)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	_, err = f.service.Decide("athlete-1", result.Proposal.ID, DecisionDecline, now)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	// The patch must not have been applied twice
	adjusted, err := f.workouts.FindByID(f.workouts.Conn(), w.ID, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(adjusted.Notes, "flat legs"))
}

func TestDecide_DeclineRemovesUnconfirmedCoachPlaceholder(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	checkIn := f.seedCheckIn(t, "athlete-1")

	placeholder := &calendar.Workout{
		UserID:       "athlete-1",
		Title:        "Suggested recovery spin",
		Type:         "ride",
		Date:         calendar.NormalizeToLocalNoon(now),
		DurationMin:  40,
		Intensity:    calendar.IntensityRecovery,
		Status:       calendar.StatusPlanned,
		Source:       calendar.SourceAI,
		Confirmed:    false,
		EstimatedTSS: 20,
	}
	require.NoError(t, f.workouts.Create(f.workouts.Conn(), placeholder))

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.AdjustWorkout{WorkoutID: placeholder.ID, IntensityChange: "easier", Reason: "coach call"},
		SubmitMeta{Summary: "coach change", SourceType: SourceCoach, WorkoutID: placeholder.ID, CheckInID: checkIn.ID}, now)
	require.NoError(t, err)
	require.False(t, result.Applied)

	decided, err := f.service.Decide("athlete-1", result.Proposal.ID, DecisionDecline, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, decided.Status)

	_, err = f.workouts.FindByID(f.workouts.Conn(), placeholder.ID, "athlete-1")
	assert.ErrorIs(t, err, calendar.ErrNotFound, "declined coach placeholder must be removed")

	marked, err := f.checkIns.FindByID(checkIn.ID)
	require.NoError(t, err)
	assert.Equal(t, checkins.StatusOverridden, marked.Status)
	assert.Equal(t, "Declined", marked.OverrideReason)
}

func TestDecide_DeclineKeepsConfirmedWorkout(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.AdjustWorkout{WorkoutID: w.ID, IntensityChange: "harder", Reason: "coach call"},
		SubmitMeta{Summary: "coach change", SourceType: SourceCoach, WorkoutID: w.ID}, now)
	require.NoError(t, err)
	require.False(t, result.Applied)

	_, err = f.service.Decide("athlete-1", result.Proposal.ID, DecisionDecline, now)
	require.NoError(t, err)

	kept, err := f.workouts.FindByID(f.workouts.Conn(), w.ID, "athlete-1")
	require.NoError(t, err)
	assert.Empty(t, kept.Notes, "declining must not touch an athlete-authored workout")
}

func TestDecide_OwnershipAndMissing(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	w := f.seedWorkout(t, "athlete-1", now)

	result, err := f.service.Submit(profileWith(calendar.RigidityLocked1Day),
		&suggestions.AdjustWorkout{WorkoutID: w.ID, IntensityChange: "easier", Reason: "tired"},
		SubmitMeta{Summary: "ease", SourceType: SourceDailyCheckIn, WorkoutID: w.ID}, now)
	require.NoError(t, err)
	require.False(t, result.Applied)

	_, err = f.service.Decide("athlete-2", result.Proposal.ID, DecisionAccept, now)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.service.Decide("athlete-1", "no-such-proposal", DecisionAccept, now)
	assert.ErrorIs(t, err, ErrNotFound)

	// A failed decision leaves the proposal pending
	stored, err := f.repo.FindByID(result.Proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

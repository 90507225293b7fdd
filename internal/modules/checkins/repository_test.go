package checkins

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/cadence/internal/database"
)

func newTestRepo(t *testing.T) *Repository {
	return NewRepository(database.NewTestDB(t), zerolog.Nop())
}

func seedCheckIn(t *testing.T, repo *Repository, daysAgo int, readiness float64, feedback string, now time.Time) *CheckIn {
	t.Helper()
	c := &CheckIn{
		UserID:    "athlete-1",
		Date:      now.AddDate(0, 0, -daysAgo),
		Readiness: readiness,
		Feedback:  feedback,
	}
	require.NoError(t, repo.Create(c))
	return c
}

func TestAverageReadiness_WindowedMean(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	seedCheckIn(t, repo, 1, 60, "", now)
	seedCheckIn(t, repo, 3, 40, "", now)
	seedCheckIn(t, repo, 20, 10, "", now) // outside the window

	avg, ok, err := repo.AverageReadiness("athlete-1", now, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 50.0, avg, 0.001, "stale check-ins stay out of the average")
}

func TestAverageReadiness_NoData(t *testing.T) {
	repo := newTestRepo(t)

	_, ok, err := repo.AverageReadiness("athlete-1", time.Now(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTooHardRatio_IgnoresEmptyFeedback(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	seedCheckIn(t, repo, 1, 50, FeedbackTooHard, now)
	seedCheckIn(t, repo, 2, 50, FeedbackJustRight, now)
	seedCheckIn(t, repo, 3, 50, "", now) // readiness-only check-in

	ratio, ok, err := repo.TooHardRatio("athlete-1", now, 14)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 0.001)
}

func TestReadinessHistory_OldestFirst(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	seedCheckIn(t, repo, 1, 70, "", now)
	seedCheckIn(t, repo, 5, 30, "", now)

	scores, err := repo.ReadinessHistory("athlete-1", now, 14)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 70}, scores)
}

func TestMark_TerminalStates(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	c := seedCheckIn(t, repo, 0, 55, FeedbackTooHard, now)

	require.NoError(t, repo.MarkAccepted(repo.db.Conn(), c.ID, "athlete-1"))
	got, err := repo.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)

	require.NoError(t, repo.MarkOverridden(repo.db.Conn(), c.ID, "athlete-1", "Declined"))
	got, err = repo.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverridden, got.Status)
	assert.Equal(t, "Declined", got.OverrideReason)
}

func TestMark_WrongOwnerOrMissing(t *testing.T) {
	repo := newTestRepo(t)
	c := seedCheckIn(t, repo, 0, 55, "", time.Now())

	assert.ErrorIs(t, repo.MarkAccepted(repo.db.Conn(), c.ID, "athlete-2"), ErrNotFound)
	assert.ErrorIs(t, repo.MarkAccepted(repo.db.Conn(), "no-such-id", "athlete-1"), ErrNotFound)
}

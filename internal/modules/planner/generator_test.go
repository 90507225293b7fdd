package planner

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() Context {
	return Context{
		UserID:          "athlete-1",
		Sport:           SportRun,
		Level:           LevelIntermediate,
		WeeklyHoursGoal: 8,
		WeekStart:       time.Date(2026, time.March, 2, 12, 0, 0, 0, time.Local), // a Monday
	}
}

func newTestGenerator() *Generator {
	return NewGenerator(DefaultLibrary(), zerolog.Nop())
}

func TestGenerate_Deterministic(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.HasHistory = true
	ctx.LastWeekTSS = 220

	first, err := g.Generate(ctx)
	require.NoError(t, err)
	second, err := g.Generate(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical contexts must produce identical plans")
}

func TestGenerate_DefaultCeilingWithoutHistory(t *testing.T) {
	g := newTestGenerator()

	result, err := g.Generate(testContext())
	require.NoError(t, err)

	assert.Equal(t, 300.0, result.MaxAllowedTSS)
	assert.LessOrEqual(t, result.TotalTSS, result.MaxAllowedTSS,
		"trim rule must pull the week back under the default ceiling")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "trimmed by 30%")
}

func TestGenerate_CeilingGrowsFromCompletedHistory(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.HasHistory = true
	ctx.LastWeekTSS = 200

	result, err := g.Generate(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 230.0, result.MaxAllowedTSS, 0.001, "ceiling is last week plus 15%")
}

func TestGenerate_ReadinessAndFeedbackShrinkCeiling(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.HasHistory = true
	ctx.LastWeekTSS = 400
	ctx.HasReadiness = true
	ctx.AvgReadiness = 50
	ctx.HasFeedback = true
	ctx.TooHardRatio = 0.5

	result, err := g.Generate(ctx)
	require.NoError(t, err)

	// 400 * 1.15 * 0.9 * 0.9
	assert.InDelta(t, 372.6, result.MaxAllowedTSS, 0.001)

	joined := ""
	for _, w := range result.Warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, "readiness")
	assert.Contains(t, joined, "too hard")
}

func TestGenerate_PenaltiesNeedTheirFlags(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.HasHistory = true
	ctx.LastWeekTSS = 400
	// Low values present but flags unset: no data means no penalty
	ctx.AvgReadiness = 10
	ctx.TooHardRatio = 1.0

	result, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 460.0, result.MaxAllowedTSS, 0.001)
	assert.Empty(t, result.Warnings)
}

func TestGenerate_BeginnerLowVolumeGetsExtraRest(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.Level = LevelBeginner
	ctx.WeeklyHoursGoal = 4
	ctx.HasHistory = true
	ctx.LastWeekTSS = 300

	result, err := g.Generate(ctx)
	require.NoError(t, err)

	assert.Len(t, result.Workouts, 4, "beginner at low volume keeps four sessions")
	for _, w := range result.Workouts {
		day := int(w.Date.Sub(ctx.WeekStart).Hours() / 24)
		assert.NotEqual(t, 3, day, "the moderate day becomes rest for beginners")
		assert.NotEqual(t, 6, day, "the closing session becomes rest at low volume")
	}
}

func TestGenerate_TriathlonUsesItsOwnSkeleton(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.Sport = SportTriathlon
	ctx.Level = LevelAdvanced
	ctx.WeeklyHoursGoal = 10
	ctx.HasHistory = true
	ctx.LastWeekTSS = 500

	result, err := g.Generate(ctx)
	require.NoError(t, err)
	require.Len(t, result.Workouts, 6)

	types := map[string]bool{}
	for _, w := range result.Workouts {
		types[w.Type] = true
		day := int(w.Date.Sub(ctx.WeekStart).Hours() / 24)
		assert.NotEqual(t, 4, day, "triathlon week rests mid-week")
	}
	assert.True(t, types["swim"] && types["ride"] && types["run"] && types["brick"],
		"triathlon week must mix all three sports plus a brick")
}

func TestGenerate_ExperienceScalesDurations(t *testing.T) {
	g := newTestGenerator()

	beginner := testContext()
	beginner.Level = LevelBeginner
	beginner.HasHistory = true
	beginner.LastWeekTSS = 500

	expert := testContext()
	expert.Level = LevelExpert
	expert.HasHistory = true
	expert.LastWeekTSS = 500

	small, err := g.Generate(beginner)
	require.NoError(t, err)
	large, err := g.Generate(expert)
	require.NoError(t, err)

	assert.Less(t, small.TotalTSS, large.TotalTSS)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	g := newTestGenerator()

	tests := []struct {
		name   string
		mutate func(*Context)
	}{
		{"missing user", func(c *Context) { c.UserID = "" }},
		{"unknown sport", func(c *Context) { c.Sport = "curling" }},
		{"unknown level", func(c *Context) { c.Level = "legendary" }},
		{"hours out of range", func(c *Context) { c.WeeklyHoursGoal = 50 }},
		{"zero week start", func(c *Context) { c.WeekStart = time.Time{} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext()
			tc.mutate(&ctx)
			_, err := g.Generate(ctx)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGenerate_SummaryListsEverySession(t *testing.T) {
	g := newTestGenerator()
	ctx := testContext()
	ctx.HasHistory = true
	ctx.LastWeekTSS = 400

	result, err := g.Generate(ctx)
	require.NoError(t, err)

	for _, w := range result.Workouts {
		assert.Contains(t, result.Summary, w.Title)
	}
}

package simulation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/cadence/internal/modules/guardrails"
	"github.com/stridelab/cadence/internal/modules/loadmodel"
)

func newTestSimulator() *Simulator {
	return NewSimulator(guardrails.NewEngine(guardrails.DefaultTolerances()), zerolog.Nop())
}

func testBaseline() BaselineMetrics {
	return BaselineMetrics{
		CTL:          45,
		ATL:          45,
		TSB:          0,
		AvgWeeklyTSS: 320,
		AvgReadiness: 65,
		IdentityMode: guardrails.ModeCompetitive,
	}
}

func aggressiveParams() ScenarioParams {
	return ScenarioParams{
		VolumeChangePct:      40,
		IntensityBias:        guardrails.IntensityHigh,
		RecoveryFocus:        guardrails.RecoveryNormal,
		ComplianceAssumption: guardrails.ComplianceOptimistic,
	}
}

func TestSimulate_CTLCeilingHoldsEveryWeek(t *testing.T) {
	sim := newTestSimulator()

	out, err := sim.Simulate(testBaseline(), aggressiveParams(), 12)
	require.NoError(t, err)

	prev := testBaseline().CTL
	for _, week := range out.Weeks {
		assert.LessOrEqual(t, week.CTL-prev, loadmodel.MaxWeeklyCTLGain+1e-9,
			"week %d CTL gain exceeds per-week ceiling", week.WeekIndex)
		prev = week.CTL
	}
}

func TestSimulate_ReadinessAndRiskStayInRange(t *testing.T) {
	sim := newTestSimulator()

	scenarios := []ScenarioParams{
		aggressiveParams(),
		{VolumeChangePct: -50, IntensityBias: guardrails.IntensityLow,
			RecoveryFocus: guardrails.RecoveryExtra, ComplianceAssumption: guardrails.ComplianceConservative},
		{VolumeChangePct: 0, IntensityBias: guardrails.IntensityBalanced,
			RecoveryFocus: guardrails.RecoveryNormal, ComplianceAssumption: guardrails.ComplianceRealistic},
	}
	for _, params := range scenarios {
		out, err := sim.Simulate(testBaseline(), params, 10)
		require.NoError(t, err)
		for _, week := range out.Weeks {
			assert.GreaterOrEqual(t, week.ReadinessAvg, 20.0, "week %d readiness", week.WeekIndex)
			assert.LessOrEqual(t, week.ReadinessAvg, 95.0, "week %d readiness", week.WeekIndex)
			assert.GreaterOrEqual(t, week.BurnoutRisk, 5.0, "week %d risk", week.WeekIndex)
			assert.LessOrEqual(t, week.BurnoutRisk, 95.0, "week %d risk", week.WeekIndex)
			assert.GreaterOrEqual(t, week.WeeklyTSS, 0.0, "week %d TSS must not be negative", week.WeekIndex)
		}
	}
}

func TestSimulate_IsDeterministic(t *testing.T) {
	sim := newTestSimulator()

	first, err := sim.Simulate(testBaseline(), aggressiveParams(), 8)
	require.NoError(t, err)
	second, err := sim.Simulate(testBaseline(), aggressiveParams(), 8)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must produce identical projections")
}

func TestSimulate_RecoveryScenarioIsSafe(t *testing.T) {
	sim := newTestSimulator()

	out, err := sim.Simulate(testBaseline(), ScenarioParams{
		VolumeChangePct:      -20,
		IntensityBias:        guardrails.IntensityLow,
		RecoveryFocus:        guardrails.RecoveryExtra,
		ComplianceAssumption: guardrails.ComplianceRealistic,
	}, 6)
	require.NoError(t, err)

	assert.Equal(t, RiskSafe, out.Summary.RiskLevel)
	assert.Zero(t, out.Summary.TotalWarnings)
}

func TestSimulate_ValidationErrors(t *testing.T) {
	sim := newTestSimulator()

	_, err := sim.Simulate(testBaseline(), aggressiveParams(), 0)
	assert.ErrorIs(t, err, ErrValidation, "zero weeks is invalid")

	_, err = sim.Simulate(testBaseline(), aggressiveParams(), 25)
	assert.ErrorIs(t, err, ErrValidation, "too many weeks is invalid")

	params := aggressiveParams()
	params.VolumeChangePct = 60
	_, err = sim.Simulate(testBaseline(), params, 8)
	assert.ErrorIs(t, err, ErrValidation, "volume change outside [-50, 50] is invalid")

	params = aggressiveParams()
	params.IntensityBias = "EXTREME"
	_, err = sim.Simulate(testBaseline(), params, 8)
	assert.ErrorIs(t, err, ErrValidation, "unknown intensity bias is invalid")
}

func TestSimulate_IdentityModeOverrideTightensCaps(t *testing.T) {
	sim := newTestSimulator()

	params := aggressiveParams()
	competitive, err := sim.Simulate(testBaseline(), params, 8)
	require.NoError(t, err)

	params.IdentityModeOverride = guardrails.ModeComeback
	comeback, err := sim.Simulate(testBaseline(), params, 8)
	require.NoError(t, err)

	last := len(competitive.Weeks) - 1
	assert.Less(t, comeback.Weeks[last].WeeklyTSS, competitive.Weeks[last].WeeklyTSS,
		"comeback mode must cap harder than competitive")
}

func TestCompare_AggressiveRanksAtOrAboveLongevity(t *testing.T) {
	sim := newTestSimulator()

	comparisons, err := sim.Compare(testBaseline(), []string{"aggressive_build", "longevity_first"})
	require.NoError(t, err)
	require.Len(t, comparisons, 2)

	byName := map[string]Comparison{}
	for _, c := range comparisons {
		byName[c.Name] = c
	}
	assert.GreaterOrEqual(t,
		riskRank(byName["aggressive_build"].RiskLevel),
		riskRank(byName["longevity_first"].RiskLevel),
		"aggressive build can never be ranked safer than longevity first")

	// Ranked output is ordered lowest risk first
	for i := 1; i < len(comparisons); i++ {
		assert.LessOrEqual(t, riskRank(comparisons[i-1].RiskLevel), riskRank(comparisons[i].RiskLevel))
	}
}

func TestCompare_UnknownPresetFails(t *testing.T) {
	sim := newTestSimulator()

	_, err := sim.Compare(testBaseline(), []string{"moon_shot"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "moon_shot", "error must name the offending preset")
}

func TestBuildBaseline_FromHistory(t *testing.T) {
	baseline, notes := BuildBaseline([]float64{300, 320, 340, 310}, []float64{70, 60, 65}, guardrails.ModeLongevity)

	assert.InDelta(t, 317.5, baseline.AvgWeeklyTSS, 1e-9)
	assert.InDelta(t, 317.5/7.0, baseline.CTL, 1e-9, "CTL seeds from average daily load")
	assert.Equal(t, baseline.CTL, baseline.ATL, "seeded baseline starts adapted")
	assert.Zero(t, baseline.TSB)
	assert.InDelta(t, 65.0, baseline.AvgReadiness, 1e-9)
	assert.Equal(t, guardrails.ModeLongevity, baseline.IdentityMode)
	assert.Empty(t, notes, "clean history needs no data-quality notes")
}

func TestBuildBaseline_EmptyHistoryUsesDefaults(t *testing.T) {
	baseline, notes := BuildBaseline(nil, nil, guardrails.ModeCompetitive)

	assert.Equal(t, defaultSeedTSS, baseline.AvgWeeklyTSS)
	assert.NotEmpty(t, notes, "missing history must be flagged")
}

func TestBuildBaseline_ErraticLoadIsFlagged(t *testing.T) {
	_, notes := BuildBaseline([]float64{50, 600, 40, 700}, nil, guardrails.ModeCompetitive)

	assert.NotEmpty(t, notes, "high variance history must be flagged")
}

package simulation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/stridelab/cadence/internal/modules/guardrails"
)

// defaultSeedTSS seeds the baseline when the athlete has no recorded weeks.
const defaultSeedTSS = 250.0

// BuildBaseline derives a simulation baseline from recent weekly TSS totals
// and daily readiness scores. When the caller has no stored CTL/ATL, both are
// seeded from the average daily load, which makes TSB start at zero - the
// athlete is assumed adapted to whatever they have been doing.
//
// Returned notes flag data-quality issues (sparse or erratic history); they
// are informational, like guardrail warnings.
func BuildBaseline(weeklyTSS, readiness []float64, mode guardrails.IdentityMode) (BaselineMetrics, []string) {
	var notes []string

	avgWeekly := defaultSeedTSS
	if len(weeklyTSS) > 0 {
		avgWeekly = stat.Mean(weeklyTSS, nil)
	} else {
		notes = append(notes, "No training history: baseline seeded from defaults")
	}
	if avgWeekly < 0 {
		avgWeekly = 0
	}

	if len(weeklyTSS) >= 3 {
		sd := stat.StdDev(weeklyTSS, nil)
		if avgWeekly > 0 && sd/avgWeekly > 0.5 {
			notes = append(notes, "Recent load is erratic; projections are less reliable")
		}
	} else if len(weeklyTSS) > 0 {
		notes = append(notes, "Fewer than 3 recorded weeks; baseline average is rough")
	}

	avgReadiness := 50.0
	if len(readiness) > 0 {
		avgReadiness = stat.Mean(readiness, nil)
	}

	seed := avgWeekly / 7.0
	return BaselineMetrics{
		CTL:          seed,
		ATL:          seed,
		TSB:          0,
		AvgWeeklyTSS: avgWeekly,
		AvgReadiness: avgReadiness,
		// Low readiness reads as elevated background burnout risk
		AvgBurnoutRisk: clampRisk(100 - avgReadiness),
		IdentityMode:   mode,
	}, notes
}

func clampRisk(v float64) float64 {
	if v < 5 {
		return 5
	}
	if v > 95 {
		return 95
	}
	return v
}

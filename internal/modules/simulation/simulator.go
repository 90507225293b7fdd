package simulation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stridelab/cadence/internal/modules/guardrails"
	"github.com/stridelab/cadence/internal/modules/loadmodel"
)

// intensityMultipliers scale the target weekly load by scenario intensity.
var intensityMultipliers = map[guardrails.IntensityBias]float64{
	guardrails.IntensityLow:      0.85,
	guardrails.IntensityBalanced: 1.0,
	guardrails.IntensityHigh:     1.15,
}

// complianceDiscounts convert planned load into load actually expected to be
// completed. Even "optimistic" athletes miss sessions.
var complianceDiscounts = map[guardrails.Compliance]float64{
	guardrails.ComplianceOptimistic:   0.95,
	guardrails.ComplianceRealistic:    0.85,
	guardrails.ComplianceConservative: 0.75,
}

// Simulator orchestrates the load model and guardrail engine across N weeks.
// It is stateless and safe for concurrent use.
type Simulator struct {
	guard *guardrails.Engine
	log   zerolog.Logger
}

// NewSimulator creates a simulator backed by the given guardrail engine.
func NewSimulator(guard *guardrails.Engine, log zerolog.Logger) *Simulator {
	return &Simulator{
		guard: guard,
		log:   log.With().Str("component", "simulator").Logger(),
	}
}

// Simulate projects the baseline forward week by week under the scenario.
// The week loop is an ordered fold: each week's load cap and CTL/ATL depend on
// the previous week, so it must never be parallelized.
func (s *Simulator) Simulate(baseline BaselineMetrics, params ScenarioParams, weeks int) (*Output, error) {
	if weeks < MinWeeks || weeks > MaxWeeks {
		return nil, fmt.Errorf("%w: durationWeeks %d outside [%d, %d]", ErrValidation, weeks, MinWeeks, MaxWeeks)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	mode := baseline.IdentityMode
	if params.IdentityModeOverride != "" {
		mode = params.IdentityModeOverride
	}
	flags := guardrails.ScenarioFlags{
		IntensityBias: params.IntensityBias,
		RecoveryFocus: params.RecoveryFocus,
		Compliance:    params.ComplianceAssumption,
	}

	targetTSS := baseline.AvgWeeklyTSS *
		(1 + float64(params.VolumeChangePct)/100.0) *
		intensityMultipliers[params.IntensityBias]
	discount := complianceDiscounts[params.ComplianceAssumption]

	ctl, atl := baseline.CTL, baseline.ATL
	prevTSS := baseline.AvgWeeklyTSS
	prevCTL := ctl

	results := make([]WeekResult, 0, weeks)
	totalWarnings := 0
	peakRisk := 0.0

	for week := 1; week <= weeks; week++ {
		// Linear ramp from the baseline average toward the scenario target
		progress := float64(week) / float64(weeks)
		planned := baseline.AvgWeeklyTSS + (targetTSS-baseline.AvgWeeklyTSS)*progress
		planned *= discount
		if planned < 0 {
			planned = 0
		}

		// Provisional step so the guardrails see the projected freshness.
		// Capping only reduces load, so this errs on the cautious side.
		_, _, projTSB := loadmodel.Step(ctl, atl, planned)

		capped, warnings := s.guard.Evaluate(prevTSS, planned, projTSB, mode, flags)

		var tsb float64
		ctl, atl, tsb = loadmodel.Step(ctl, atl, capped)

		rampRate := guardrails.RampRate(prevTSS, capped)
		risk := s.guard.BurnoutRisk(tsb, rampRate, mode, flags)
		if w := guardrails.BurnoutWarning(risk); w != "" {
			warnings = append(warnings, w)
		}
		readiness := s.guard.Readiness(tsb, mode, flags)

		results = append(results, WeekResult{
			WeekIndex:    week,
			CTL:          ctl,
			ATL:          atl,
			TSB:          tsb,
			ReadinessAvg: readiness,
			BurnoutRisk:  risk,
			WeeklyTSS:    capped,
			Insights:     weekInsights(week, ctl, prevCTL, tsb),
			Warnings:     warnings,
		})

		totalWarnings += len(warnings)
		if risk > peakRisk {
			peakRisk = risk
		}
		prevTSS = capped
		prevCTL = ctl
	}

	summary := summarize(results, totalWarnings, peakRisk)

	s.log.Debug().
		Int("weeks", weeks).
		Str("mode", string(mode)).
		Str("risk_level", string(summary.RiskLevel)).
		Int("warnings", totalWarnings).
		Msg("Simulation completed")

	return &Output{Weeks: results, Summary: summary}, nil
}

// weekInsights derives short qualitative notes for one simulated week.
func weekInsights(week int, ctl, prevCTL, tsb float64) []string {
	var insights []string
	if gain := ctl - prevCTL; gain >= 1.0 {
		insights = append(insights, fmt.Sprintf("Fitness building steadily (CTL +%.1f)", gain))
	}
	if tsb < -20 {
		insights = append(insights, fmt.Sprintf("Deep fatigue by week %d (TSB %.1f)", week, tsb))
	} else if tsb > 10 {
		insights = append(insights, "Fresh enough to absorb quality work")
	}
	return insights
}

func summarize(weeks []WeekResult, totalWarnings int, peakRisk float64) Summary {
	last := weeks[len(weeks)-1]

	var level RiskLevel
	var recommendation string
	switch {
	case totalWarnings == 0 && peakRisk < 50:
		level = RiskSafe
		recommendation = "This plan looks safe and sustainable."
	case totalWarnings <= 2 && peakRisk < 70:
		level = RiskModerate
		recommendation = "Workable, but carries moderate risk. Watch recovery closely."
	default:
		level = RiskHigh
		recommendation = "High risk of overreaching. Scale back volume or add recovery."
	}

	return Summary{
		RiskLevel:       level,
		Recommendation:  recommendation,
		TotalWarnings:   totalWarnings,
		PeakBurnoutRisk: peakRisk,
		EndCTL:          last.CTL,
		EndTSB:          last.TSB,
	}
}

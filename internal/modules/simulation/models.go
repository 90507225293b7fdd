// Package simulation projects multi-week fitness/fatigue trajectories under
// hypothetical training scenarios.
package simulation

import (
	"errors"
	"fmt"

	"github.com/stridelab/cadence/internal/modules/guardrails"
)

// ErrValidation marks malformed simulation inputs. Guardrail breaches are
// never validation errors; they surface as warnings on a successful result.
var ErrValidation = errors.New("validation error")

const (
	// MinWeeks / MaxWeeks bound simulation length; callers supply small values.
	MinWeeks = 1
	MaxWeeks = 24

	minVolumeChangePct = -50
	maxVolumeChangePct = 50
)

// BaselineMetrics is the immutable snapshot the simulation starts from.
type BaselineMetrics struct {
	CTL            float64                 `json:"ctl"`
	ATL            float64                 `json:"atl"`
	TSB            float64                 `json:"tsb"`
	AvgWeeklyTSS   float64                 `json:"avgWeeklyTss"`
	AvgReadiness   float64                 `json:"avgReadiness"`
	AvgBurnoutRisk float64                 `json:"avgBurnoutRisk"`
	IdentityMode   guardrails.IdentityMode `json:"identityMode"`
}

// ScenarioParams describes the hypothetical scenario to project.
type ScenarioParams struct {
	VolumeChangePct      int                      `json:"volumeChangePct"`
	IntensityBias        guardrails.IntensityBias `json:"intensityBias"`
	RecoveryFocus        guardrails.RecoveryFocus `json:"recoveryFocus"`
	ComplianceAssumption guardrails.Compliance    `json:"complianceAssumption"`
	IdentityModeOverride guardrails.IdentityMode  `json:"identityModeOverride,omitempty"`
}

// Validate checks the scenario parameters, returning a typed validation error
// for anything malformed.
func (p ScenarioParams) Validate() error {
	if p.VolumeChangePct < minVolumeChangePct || p.VolumeChangePct > maxVolumeChangePct {
		return fmt.Errorf("%w: volumeChangePct %d outside [%d, %d]",
			ErrValidation, p.VolumeChangePct, minVolumeChangePct, maxVolumeChangePct)
	}
	switch p.IntensityBias {
	case guardrails.IntensityLow, guardrails.IntensityBalanced, guardrails.IntensityHigh:
	default:
		return fmt.Errorf("%w: unknown intensityBias %q", ErrValidation, p.IntensityBias)
	}
	switch p.RecoveryFocus {
	case guardrails.RecoveryNormal, guardrails.RecoveryExtra:
	default:
		return fmt.Errorf("%w: unknown recoveryFocus %q", ErrValidation, p.RecoveryFocus)
	}
	switch p.ComplianceAssumption {
	case guardrails.ComplianceRealistic, guardrails.ComplianceOptimistic, guardrails.ComplianceConservative:
	default:
		return fmt.Errorf("%w: unknown complianceAssumption %q", ErrValidation, p.ComplianceAssumption)
	}
	return nil
}

// WeekResult is one simulated week. It is created once by the simulator and
// never mutated or persisted.
type WeekResult struct {
	WeekIndex    int      `json:"weekIndex"`
	CTL          float64  `json:"simulatedCtl"`
	ATL          float64  `json:"simulatedAtl"`
	TSB          float64  `json:"simulatedTsb"`
	ReadinessAvg float64  `json:"simulatedReadinessAvg"`
	BurnoutRisk  float64  `json:"simulatedBurnoutRisk"`
	WeeklyTSS    float64  `json:"weeklyTss"`
	Insights     []string `json:"insights"`
	Warnings     []string `json:"warnings"`
}

// RiskLevel is the qualitative tier of a simulated scenario.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// riskRank orders risk levels for comparisons (safe < moderate < high).
func riskRank(level RiskLevel) int {
	switch level {
	case RiskSafe:
		return 0
	case RiskModerate:
		return 1
	default:
		return 2
	}
}

// Summary is the qualitative roll-up of a full simulation.
type Summary struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	Recommendation  string    `json:"recommendation"`
	TotalWarnings   int       `json:"totalWarnings"`
	PeakBurnoutRisk float64   `json:"peakBurnoutRisk"`
	EndCTL          float64   `json:"endCtl"`
	EndTSB          float64   `json:"endTsb"`
}

// Output is the full result of one simulation run, returned to the caller and
// never persisted by this engine.
type Output struct {
	Weeks   []WeekResult `json:"weeks"`
	Summary Summary      `json:"summary"`
}

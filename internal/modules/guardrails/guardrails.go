// Package guardrails enforces safety limits on planned training load.
//
// The engine advises rather than blocks: numbers are capped or clamped and
// every breach is reported as a warning string on an otherwise-successful
// result. Tolerances scale with the athlete's identity mode and are passed in
// as explicit configuration so tests can substitute fixtures.
package guardrails

import "fmt"

// IdentityMode is the athlete archetype that scales guardrail tolerances.
type IdentityMode string

const (
	ModeCompetitive      IdentityMode = "competitive"
	ModeLongevity        IdentityMode = "longevity"
	ModeComeback         IdentityMode = "comeback"
	ModeBusyProfessional IdentityMode = "busy_professional"
)

// IntensityBias describes the intensity skew of a scenario.
type IntensityBias string

const (
	IntensityLow      IntensityBias = "LOW"
	IntensityBalanced IntensityBias = "BALANCED"
	IntensityHigh     IntensityBias = "HIGH"
)

// RecoveryFocus describes how much deliberate recovery a scenario assumes.
type RecoveryFocus string

const (
	RecoveryNormal RecoveryFocus = "NORMAL"
	RecoveryExtra  RecoveryFocus = "EXTRA"
)

// Compliance is the assumed fraction of planned work actually completed.
type Compliance string

const (
	ComplianceRealistic    Compliance = "REALISTIC"
	ComplianceOptimistic   Compliance = "OPTIMISTIC"
	ComplianceConservative Compliance = "CONSERVATIVE"
)

// ScenarioFlags carries the scenario attributes the guardrails react to.
type ScenarioFlags struct {
	IntensityBias IntensityBias
	RecoveryFocus RecoveryFocus
	Compliance    Compliance
}

// ModeTolerance holds the per-identity-mode guardrail scaling.
type ModeTolerance struct {
	RampMultiplier float64 // scales the base ramp-rate cap
	RecoveryBonus  float64 // subtracted from burnout risk, added to readiness
}

// Tolerances maps identity modes to their guardrail scaling.
type Tolerances map[IdentityMode]ModeTolerance

// DefaultTolerances returns the production tolerance table. Recovery emphasis
// rises as the archetype's risk tolerance falls.
func DefaultTolerances() Tolerances {
	return Tolerances{
		ModeCompetitive:      {RampMultiplier: 1.0, RecoveryBonus: 0},
		ModeLongevity:        {RampMultiplier: 0.7, RecoveryBonus: 10},
		ModeComeback:         {RampMultiplier: 0.5, RecoveryBonus: 15},
		ModeBusyProfessional: {RampMultiplier: 0.8, RecoveryBonus: 5},
	}
}

const (
	baseRampCap    = 0.10  // 10% week-over-week growth before capping
	dangerRampRate = 0.15  // absolute danger threshold, warned regardless of mode
	tsbFloor       = -30.0 // freshness floor; below this the athlete is digging a hole
	burnoutWarnAt  = 70.0

	// returnToTrainingTSS caps the first week back when there is no prior load
	// to compute a ramp rate against.
	returnToTrainingTSS = 150.0

	burnoutRiskMin = 5.0
	burnoutRiskMax = 95.0
	readinessMin   = 20.0
	readinessMax   = 95.0
)

// Engine evaluates planned load against the tolerance table.
type Engine struct {
	tolerances Tolerances
}

// NewEngine creates a guardrail engine with the given tolerance table.
func NewEngine(tolerances Tolerances) *Engine {
	return &Engine{tolerances: tolerances}
}

// tolerance returns the mode's tolerance, falling back to neutral scaling for
// unknown modes.
func (e *Engine) tolerance(mode IdentityMode) ModeTolerance {
	if tol, ok := e.tolerances[mode]; ok {
		return tol
	}
	return ModeTolerance{RampMultiplier: 1.0, RecoveryBonus: 0}
}

// RampRate returns the week-over-week fractional load change. It is undefined
// (returns 0) when there is no prior load.
func RampRate(prevWeekTSS, plannedTSS float64) float64 {
	if prevWeekTSS <= 0 {
		return 0
	}
	return (plannedTSS - prevWeekTSS) / prevWeekTSS
}

// Evaluate caps plannedTSS by the mode-scaled ramp limit and reports breaches.
// The tsb argument is the projected training stress balance for the evaluated
// week; a value below the floor is flagged but never alters the numbers.
func (e *Engine) Evaluate(prevWeekTSS, plannedTSS, tsb float64, mode IdentityMode, flags ScenarioFlags) (float64, []string) {
	var warnings []string
	capped := plannedTSS
	if capped < 0 {
		capped = 0
	}

	if prevWeekTSS <= 0 {
		// No prior load: ramp rate is undefined, so cap at the
		// return-to-training ceiling instead.
		if capped > returnToTrainingTSS {
			capped = returnToTrainingTSS
			warnings = append(warnings,
				fmt.Sprintf("No recent training history: first week capped at %.0f TSS", returnToTrainingTSS))
		}
	} else {
		rampRate := RampRate(prevWeekTSS, capped)
		scaledCap := baseRampCap * e.tolerance(mode).RampMultiplier

		if rampRate > dangerRampRate {
			warnings = append(warnings,
				fmt.Sprintf("Ramp rate %.0f%% exceeds the %.0f%% danger threshold", rampRate*100, dangerRampRate*100))
		}
		if rampRate > scaledCap {
			capped = prevWeekTSS * (1 + scaledCap)
			warnings = append(warnings,
				fmt.Sprintf("Weekly load capped at %.0f TSS (%.0f%% ramp limit for %s mode)", capped, scaledCap*100, mode))
		}
	}

	if tsb < tsbFloor {
		warnings = append(warnings,
			fmt.Sprintf("Projected freshness (TSB %.1f) below safe floor of %.0f", tsb, tsbFloor))
	}

	return capped, warnings
}

// BurnoutRisk scores the heuristic burnout risk for one week, clamped to
// [5, 95]. It is a coarse planning signal, not a medical measure.
func (e *Engine) BurnoutRisk(tsb, rampRate float64, mode IdentityMode, flags ScenarioFlags) float64 {
	risk := 20.0

	if tsb < -20 {
		risk += 20
	}
	if tsb < -30 {
		risk += 15
	}
	if rampRate > 0.08 {
		risk += 15
	}
	if flags.IntensityBias == IntensityHigh {
		risk += 10
	}
	if flags.Compliance == ComplianceOptimistic {
		risk += 5
	}

	if flags.RecoveryFocus == RecoveryExtra {
		risk -= 10
	}
	risk -= e.tolerance(mode).RecoveryBonus

	return clamp(risk, burnoutRiskMin, burnoutRiskMax)
}

// Readiness estimates average readiness for one week as a proxy anchored at
// 50, shifted by freshness and recovery bonuses, clamped to [20, 95].
func (e *Engine) Readiness(tsb float64, mode IdentityMode, flags ScenarioFlags) float64 {
	readiness := 50.0 + tsb
	if flags.RecoveryFocus == RecoveryExtra {
		readiness += 10
	}
	readiness += e.tolerance(mode).RecoveryBonus

	return clamp(readiness, readinessMin, readinessMax)
}

// BurnoutWarning returns a warning string when the risk crosses the alert
// threshold, or "" otherwise.
func BurnoutWarning(risk float64) string {
	if risk > burnoutWarnAt {
		return fmt.Sprintf("Burnout risk elevated (%.0f/100)", risk)
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

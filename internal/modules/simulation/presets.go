package simulation

import (
	"fmt"
	"sort"

	"github.com/stridelab/cadence/internal/modules/guardrails"
)

// Preset is a named, ready-to-run scenario used by the "compare scenarios"
// surface. Presets are immutable configuration data.
type Preset struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Params ScenarioParams `json:"params"`
	Weeks  int            `json:"weeks"`
}

// Presets returns the built-in scenario presets keyed by name. A fresh map is
// returned on every call so callers cannot mutate shared state.
func Presets() map[string]Preset {
	presets := []Preset{
		{
			Name:  "aggressive_build",
			Label: "Aggressive build",
			Params: ScenarioParams{
				VolumeChangePct:      30,
				IntensityBias:        guardrails.IntensityHigh,
				RecoveryFocus:        guardrails.RecoveryNormal,
				ComplianceAssumption: guardrails.ComplianceOptimistic,
			},
			Weeks: 8,
		},
		{
			Name:  "steady_state",
			Label: "Steady state",
			Params: ScenarioParams{
				VolumeChangePct:      0,
				IntensityBias:        guardrails.IntensityBalanced,
				RecoveryFocus:        guardrails.RecoveryNormal,
				ComplianceAssumption: guardrails.ComplianceRealistic,
			},
			Weeks: 8,
		},
		{
			Name:  "recovery_block",
			Label: "Recovery block",
			Params: ScenarioParams{
				VolumeChangePct:      -30,
				IntensityBias:        guardrails.IntensityLow,
				RecoveryFocus:        guardrails.RecoveryExtra,
				ComplianceAssumption: guardrails.ComplianceRealistic,
			},
			Weeks: 4,
		},
		{
			Name:  "longevity_first",
			Label: "Longevity first",
			Params: ScenarioParams{
				VolumeChangePct:      5,
				IntensityBias:        guardrails.IntensityBalanced,
				RecoveryFocus:        guardrails.RecoveryExtra,
				ComplianceAssumption: guardrails.ComplianceRealistic,
				IdentityModeOverride: guardrails.ModeLongevity,
			},
			Weeks: 8,
		},
		{
			Name:  "time_crunched",
			Label: "Time crunched",
			Params: ScenarioParams{
				VolumeChangePct:      -10,
				IntensityBias:        guardrails.IntensityHigh,
				RecoveryFocus:        guardrails.RecoveryNormal,
				ComplianceAssumption: guardrails.ComplianceConservative,
				IdentityModeOverride: guardrails.ModeBusyProfessional,
			},
			Weeks: 6,
		},
	}

	byName := make(map[string]Preset, len(presets))
	for _, p := range presets {
		byName[p.Name] = p
	}
	return byName
}

// Comparison is one ranked entry of a scenario comparison.
type Comparison struct {
	Name            string    `json:"name"`
	Label           string    `json:"label"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Recommendation  string    `json:"recommendation"`
	PeakBurnoutRisk float64   `json:"peakBurnoutRisk"`
	EndCTL          float64   `json:"endCtl"`
	EndTSB          float64   `json:"endTsb"`
}

// Compare runs the named presets against one baseline and returns them ranked
// from lowest to highest risk (ties broken by peak burnout risk, then name
// for determinism).
func (s *Simulator) Compare(baseline BaselineMetrics, names []string) ([]Comparison, error) {
	presets := Presets()

	comparisons := make([]Comparison, 0, len(names))
	for _, name := range names {
		preset, ok := presets[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown scenario preset %q", ErrValidation, name)
		}
		out, err := s.Simulate(baseline, preset.Params, preset.Weeks)
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, Comparison{
			Name:            preset.Name,
			Label:           preset.Label,
			RiskLevel:       out.Summary.RiskLevel,
			Recommendation:  out.Summary.Recommendation,
			PeakBurnoutRisk: out.Summary.PeakBurnoutRisk,
			EndCTL:          out.Summary.EndCTL,
			EndTSB:          out.Summary.EndTSB,
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		ri, rj := riskRank(comparisons[i].RiskLevel), riskRank(comparisons[j].RiskLevel)
		if ri != rj {
			return ri < rj
		}
		if comparisons[i].PeakBurnoutRisk != comparisons[j].PeakBurnoutRisk {
			return comparisons[i].PeakBurnoutRisk < comparisons[j].PeakBurnoutRisk
		}
		return comparisons[i].Name < comparisons[j].Name
	})

	return comparisons, nil
}

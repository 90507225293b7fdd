// Package loadmodel implements the chronic/acute training-load recursion.
//
// CTL (chronic training load) is a slow exponentially-weighted average of
// daily load and stands in for "fitness"; ATL (acute training load) is the
// fast equivalent and stands in for "fatigue"; TSB (training stress balance)
// is their difference and stands in for "freshness". All functions are pure.
package loadmodel

const (
	// ctlTimeConstant is the CTL smoothing constant in weeks (~6-week response).
	ctlTimeConstant = 6.0
	// atlTimeConstant is the ATL smoothing constant in weeks (~1.5-week response).
	atlTimeConstant = 1.5

	// MaxWeeklyCTLGain bounds how much CTL may rise in a single week. A single
	// anomalous high-volume week must not drag the whole projection upward.
	MaxWeeklyCTLGain = 5.0
)

// State holds the load-model values at the end of one week.
type State struct {
	CTL float64
	ATL float64
	TSB float64
}

// Step advances the model by one week given the week's total training stress.
// Negative weekly TSS is treated as zero. The CTL increase is clamped to
// MaxWeeklyCTLGain; decreases and ATL are never clamped, and TSB may go
// negative to indicate accumulated fatigue.
func Step(prevCTL, prevATL, weekTSS float64) (ctl, atl, tsb float64) {
	if weekTSS < 0 {
		weekTSS = 0
	}
	daily := weekTSS / 7.0

	ctl = prevCTL + (daily-prevCTL)/ctlTimeConstant
	if ctl > prevCTL+MaxWeeklyCTLGain {
		ctl = prevCTL + MaxWeeklyCTLGain
	}

	atl = prevATL + (daily-prevATL)/atlTimeConstant
	tsb = ctl - atl

	return ctl, atl, tsb
}

// Fold runs Step over a sequence of weekly TSS totals, returning one State per
// week. The fold is strictly ordered; each week depends on the previous one.
func Fold(start State, weeklyTSS []float64) []State {
	states := make([]State, 0, len(weeklyTSS))
	ctl, atl := start.CTL, start.ATL
	for _, tss := range weeklyTSS {
		var tsb float64
		ctl, atl, tsb = Step(ctl, atl, tss)
		states = append(states, State{CTL: ctl, ATL: atl, TSB: tsb})
	}
	return states
}

package planner

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// defaultMaxWeeklyTSS applies when the athlete has no completed history.
	defaultMaxWeeklyTSS = 300.0
	// weeklyGrowthCap bounds plan volume relative to last week's completed load.
	weeklyGrowthCap = 1.15

	lowReadinessThreshold = 55.0
	lowReadinessPenalty   = 0.9
	tooHardThreshold      = 0.40
	tooHardPenalty        = 0.9

	// Workouts past this count get trimmed rather than dropped when the week
	// would exceed its ceiling.
	minWorkoutsBeforeTrim = 3
	trimFactor            = 0.7
)

// confidenceByIntensity gives deterministic AI-confidence values per workout
// intensity; easier prescriptions are safer bets.
var confidenceByIntensity = map[string]float64{
	"recovery": 0.85,
	"easy":     0.80,
	"moderate": 0.75,
	"hard":     0.70,
}

// Generator assembles weekly plans from a template library. It is stateless
// and deterministic: identical contexts produce identical plans.
type Generator struct {
	lib Library
	log zerolog.Logger
}

// NewGenerator creates a generator over the given template library.
func NewGenerator(lib Library, log zerolog.Logger) *Generator {
	return &Generator{
		lib: lib,
		log: log.With().Str("component", "planner").Logger(),
	}
}

// Generate builds a 7-day plan for the context. Ceiling breaches shrink or
// flag workouts but never fail the run; only malformed input is an error.
func (g *Generator) Generate(ctx Context) (*Result, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	templates := g.lib.Templates[ctx.Sport]
	skeleton := g.lib.Skeletons[ctx.Sport]

	var warnings []string

	// Load ceiling from recent completed work
	maxAllowed := defaultMaxWeeklyTSS
	if ctx.HasHistory {
		maxAllowed = ctx.LastWeekTSS * weeklyGrowthCap
	}
	if ctx.HasReadiness && ctx.AvgReadiness < lowReadinessThreshold {
		maxAllowed *= lowReadinessPenalty
		warnings = append(warnings, fmt.Sprintf(
			"Average readiness %.0f is low; weekly load ceiling reduced by 10%%", ctx.AvgReadiness))
	}
	if ctx.HasFeedback && ctx.TooHardRatio >= tooHardThreshold {
		maxAllowed *= tooHardPenalty
		warnings = append(warnings, fmt.Sprintf(
			"%.0f%% of recent feedback reported workouts too hard; weekly load ceiling reduced by a further 10%%", ctx.TooHardRatio*100))
	}

	durationScale := experienceMultipliers[ctx.Level] * hoursTierMultiplier(ctx.WeeklyHoursGoal)

	adjusted := adjustSkeleton(skeleton, ctx)

	workouts := make([]PlannedWorkout, 0, 7)
	totalTSS := 0.0

	for day := 0; day < 7; day++ {
		archetype := adjusted[day]
		if archetype == ArchetypeRest {
			continue
		}
		tpl, ok := templates[archetype]
		if !ok {
			// A library fixture without this archetype simply skips the day
			continue
		}

		duration := int(math.Round(float64(tpl.BaseDurationMin) * durationScale))
		if duration <= 0 {
			continue
		}
		estTSS := estimateTSS(duration, tpl.TSSPerHour)

		// Once a minimum week exists, shrink anything that would blow the
		// ceiling instead of planning it at full size.
		if len(workouts) >= minWorkoutsBeforeTrim && totalTSS+estTSS > maxAllowed {
			duration = int(math.Round(float64(duration) * trimFactor))
			estTSS = estimateTSS(duration, tpl.TSSPerHour)
			warnings = append(warnings, fmt.Sprintf(
				"%s trimmed by 30%% to respect the weekly load ceiling", tpl.Title))
		}

		workouts = append(workouts, PlannedWorkout{
			Title:        tpl.Title,
			Type:         tpl.Type,
			Date:         ctx.WeekStart.AddDate(0, 0, day),
			DurationMin:  duration,
			Intensity:    tpl.Intensity,
			AIReason:     tpl.Reason,
			AIConfidence: confidenceByIntensity[tpl.Intensity],
			EstimatedTSS: estTSS,
		})
		totalTSS += estTSS
	}

	if totalTSS > maxAllowed {
		warnings = append(warnings, fmt.Sprintf(
			"Planned week totals %.0f TSS, above the %.0f ceiling; consider dropping a session", totalTSS, maxAllowed))
	}

	result := &Result{
		Workouts:      workouts,
		Warnings:      warnings,
		Summary:       buildSummary(ctx, workouts, totalTSS, maxAllowed, warnings),
		TotalTSS:      totalTSS,
		MaxAllowedTSS: maxAllowed,
	}

	g.log.Debug().
		Str("user_id", ctx.UserID).
		Str("sport", string(ctx.Sport)).
		Int("workouts", len(workouts)).
		Float64("total_tss", totalTSS).
		Int("warnings", len(warnings)).
		Msg("Weekly plan generated")

	return result, nil
}

// hoursTierMultiplier scales durations by the athlete's weekly-hours goal.
func hoursTierMultiplier(hours float64) float64 {
	switch {
	case hours <= 5:
		return 0.8
	case hours >= 12:
		return 1.2
	default:
		return 1.0
	}
}

// adjustSkeleton inserts extra rest days for beginners and low-volume goals.
func adjustSkeleton(skeleton [7]Archetype, ctx Context) [7]Archetype {
	if ctx.Level == LevelBeginner {
		// Beginners drop the moderate day
		skeleton[3] = ArchetypeRest
	}
	if ctx.WeeklyHoursGoal <= 5 {
		// Low-volume goals drop the closing session
		skeleton[6] = ArchetypeRest
	}
	return skeleton
}

func estimateTSS(durationMin int, tssPerHour float64) float64 {
	return float64(durationMin) / 60.0 * tssPerHour
}

// buildSummary renders a short markdown digest of the generated week.
func buildSummary(ctx Context, workouts []PlannedWorkout, totalTSS, maxAllowed float64, warnings []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Week of %s — %s plan\n\n", ctx.WeekStart.Format("Jan 2"), ctx.Sport)
	fmt.Fprintf(&b, "%d sessions, ~%.0f TSS (ceiling %.0f).\n\n", len(workouts), totalTSS, maxAllowed)
	for _, w := range workouts {
		fmt.Fprintf(&b, "- **%s** %s — %d min, %s, ~%.0f TSS\n",
			w.Date.Format("Mon"), w.Title, w.DurationMin, w.Intensity, w.EstimatedTSS)
	}
	if len(warnings) > 0 {
		b.WriteString("\n### Notes\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

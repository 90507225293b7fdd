package planner

// Archetype names a workout shape inside a sport's template table.
type Archetype string

const (
	ArchetypeRest      Archetype = "rest"
	ArchetypeEasy      Archetype = "easy"
	ArchetypeIntervals Archetype = "intervals"
	ArchetypeTempo     Archetype = "tempo"
	ArchetypeLong      Archetype = "long"
	ArchetypeRecovery  Archetype = "recovery"

	// Triathlon-specific archetypes
	ArchetypeSwimTechnique Archetype = "swim_technique"
	ArchetypeBikeIntervals Archetype = "bike_intervals"
	ArchetypeRunEasy       Archetype = "run_easy"
	ArchetypeLongRide      Archetype = "long_ride"
	ArchetypeBrick         Archetype = "brick"
)

// Template is one workout archetype: a base shape later scaled by experience
// level and weekly-hours goal.
type Template struct {
	Title           string
	Type            string
	Intensity       string // easy, moderate, hard, recovery
	BaseDurationMin int
	TSSPerHour      float64
	Reason          string
}

// Library holds the sport template tables and weekly skeletons. It is
// immutable configuration passed into the generator so tests can substitute
// fixtures instead of patching globals.
type Library struct {
	Templates map[Sport]map[Archetype]Template
	// Skeletons assign an archetype per weekday, index 0 = week start day.
	Skeletons map[Sport][7]Archetype
}

// DefaultLibrary returns the production template library: a polarized week
// with one quality day, one moderate day, one long day, and easy/recovery
// days between.
func DefaultLibrary() Library {
	run := map[Archetype]Template{
		ArchetypeRest:      {Title: "Rest day", Type: "rest", Intensity: "recovery", BaseDurationMin: 0, TSSPerHour: 0, Reason: "Scheduled rest keeps the week absorbable"},
		ArchetypeEasy:      {Title: "Easy run", Type: "run", Intensity: "easy", BaseDurationMin: 45, TSSPerHour: 50, Reason: "Aerobic base volume at conversational effort"},
		ArchetypeIntervals: {Title: "Interval session", Type: "run", Intensity: "hard", BaseDurationMin: 60, TSSPerHour: 95, Reason: "Weekly quality day: VO2 intervals"},
		ArchetypeTempo:     {Title: "Tempo run", Type: "run", Intensity: "moderate", BaseDurationMin: 50, TSSPerHour: 75, Reason: "Sustained moderate effort at threshold"},
		ArchetypeLong:      {Title: "Long run", Type: "run", Intensity: "moderate", BaseDurationMin: 90, TSSPerHour: 60, Reason: "Weekly long endurance run"},
		ArchetypeRecovery:  {Title: "Recovery jog", Type: "run", Intensity: "recovery", BaseDurationMin: 30, TSSPerHour: 35, Reason: "Active recovery between quality days"},
	}
	ride := map[Archetype]Template{
		ArchetypeRest:      {Title: "Rest day", Type: "rest", Intensity: "recovery", BaseDurationMin: 0, TSSPerHour: 0, Reason: "Scheduled rest keeps the week absorbable"},
		ArchetypeEasy:      {Title: "Endurance ride", Type: "ride", Intensity: "easy", BaseDurationMin: 60, TSSPerHour: 50, Reason: "Zone 2 endurance volume"},
		ArchetypeIntervals: {Title: "VO2 intervals", Type: "ride", Intensity: "hard", BaseDurationMin: 75, TSSPerHour: 90, Reason: "Weekly quality day: short hard efforts"},
		ArchetypeTempo:     {Title: "Sweet spot ride", Type: "ride", Intensity: "moderate", BaseDurationMin: 70, TSSPerHour: 75, Reason: "Sweet spot blocks below threshold"},
		ArchetypeLong:      {Title: "Long ride", Type: "ride", Intensity: "moderate", BaseDurationMin: 150, TSSPerHour: 60, Reason: "Weekly long endurance ride"},
		ArchetypeRecovery:  {Title: "Recovery spin", Type: "ride", Intensity: "recovery", BaseDurationMin: 40, TSSPerHour: 30, Reason: "Easy spin to aid recovery"},
	}
	swim := map[Archetype]Template{
		ArchetypeRest:      {Title: "Rest day", Type: "rest", Intensity: "recovery", BaseDurationMin: 0, TSSPerHour: 0, Reason: "Scheduled rest keeps the week absorbable"},
		ArchetypeEasy:      {Title: "Aerobic swim", Type: "swim", Intensity: "easy", BaseDurationMin: 45, TSSPerHour: 45, Reason: "Steady aerobic laps"},
		ArchetypeIntervals: {Title: "Swim intervals", Type: "swim", Intensity: "hard", BaseDurationMin: 60, TSSPerHour: 80, Reason: "Weekly quality day: pace intervals"},
		ArchetypeTempo:     {Title: "Threshold swim", Type: "swim", Intensity: "moderate", BaseDurationMin: 50, TSSPerHour: 65, Reason: "Sustained threshold sets"},
		ArchetypeLong:      {Title: "Long swim", Type: "swim", Intensity: "moderate", BaseDurationMin: 75, TSSPerHour: 55, Reason: "Weekly long continuous swim"},
		ArchetypeRecovery:  {Title: "Technique swim", Type: "swim", Intensity: "recovery", BaseDurationMin: 30, TSSPerHour: 30, Reason: "Drills and easy technique work"},
	}
	strength := map[Archetype]Template{
		ArchetypeRest:      {Title: "Rest day", Type: "rest", Intensity: "recovery", BaseDurationMin: 0, TSSPerHour: 0, Reason: "Scheduled rest keeps the week absorbable"},
		ArchetypeEasy:      {Title: "Mobility session", Type: "strength", Intensity: "easy", BaseDurationMin: 40, TSSPerHour: 35, Reason: "Mobility and light accessory work"},
		ArchetypeIntervals: {Title: "Heavy lift", Type: "strength", Intensity: "hard", BaseDurationMin: 60, TSSPerHour: 70, Reason: "Weekly quality day: heavy compound lifts"},
		ArchetypeTempo:     {Title: "Hypertrophy session", Type: "strength", Intensity: "moderate", BaseDurationMin: 55, TSSPerHour: 60, Reason: "Moderate-load volume work"},
		ArchetypeLong:      {Title: "Full-body session", Type: "strength", Intensity: "moderate", BaseDurationMin: 75, TSSPerHour: 55, Reason: "Longer full-body session"},
		ArchetypeRecovery:  {Title: "Core and stretch", Type: "strength", Intensity: "recovery", BaseDurationMin: 30, TSSPerHour: 25, Reason: "Core stability and stretching"},
	}
	triathlon := map[Archetype]Template{
		ArchetypeRest:          {Title: "Rest day", Type: "rest", Intensity: "recovery", BaseDurationMin: 0, TSSPerHour: 0, Reason: "Scheduled rest keeps the week absorbable"},
		ArchetypeSwimTechnique: {Title: "Swim technique", Type: "swim", Intensity: "easy", BaseDurationMin: 45, TSSPerHour: 40, Reason: "Technique-focused swim to open the week"},
		ArchetypeBikeIntervals: {Title: "Bike intervals", Type: "ride", Intensity: "hard", BaseDurationMin: 70, TSSPerHour: 90, Reason: "Weekly quality day on the bike"},
		ArchetypeRunEasy:       {Title: "Easy run", Type: "run", Intensity: "easy", BaseDurationMin: 45, TSSPerHour: 50, Reason: "Easy aerobic run between key sessions"},
		ArchetypeTempo:         {Title: "Threshold swim", Type: "swim", Intensity: "moderate", BaseDurationMin: 50, TSSPerHour: 65, Reason: "Moderate swim to balance the three sports"},
		ArchetypeLongRide:      {Title: "Long ride", Type: "ride", Intensity: "moderate", BaseDurationMin: 150, TSSPerHour: 60, Reason: "Weekly long ride"},
		ArchetypeBrick:         {Title: "Brick: ride + run", Type: "brick", Intensity: "moderate", BaseDurationMin: 90, TSSPerHour: 70, Reason: "Ride into run to train the transition"},
	}

	// The standard polarized skeleton, week starting Monday:
	// rest, quality, easy, moderate, recovery, long, easy.
	standard := [7]Archetype{
		ArchetypeRest,
		ArchetypeIntervals,
		ArchetypeEasy,
		ArchetypeTempo,
		ArchetypeRecovery,
		ArchetypeLong,
		ArchetypeEasy,
	}

	return Library{
		Templates: map[Sport]map[Archetype]Template{
			SportRun:       run,
			SportRide:      ride,
			SportSwim:      swim,
			SportStrength:  strength,
			SportTriathlon: triathlon,
		},
		Skeletons: map[Sport][7]Archetype{
			SportRun:      standard,
			SportRide:     standard,
			SportSwim:     standard,
			SportStrength: standard,
			SportTriathlon: {
				ArchetypeSwimTechnique,
				ArchetypeBikeIntervals,
				ArchetypeRunEasy,
				ArchetypeTempo,
				ArchetypeRest,
				ArchetypeLongRide,
				ArchetypeBrick,
			},
		},
	}
}

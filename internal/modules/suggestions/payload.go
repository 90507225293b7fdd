// Package suggestions validates structured plan-change payloads and applies
// them transactionally to the athlete's calendar. Payloads arrive as JSON
// from an upstream AI call or rules engine; this package only parses,
// validates and dispatches - it never generates anything.
package suggestions

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Typed failures for payload handling.
var (
	// ErrUnknownKind marks a payload whose kind discriminator is not one of
	// the supported variants.
	ErrUnknownKind = errors.New("unknown suggestion kind")
	// ErrValidation marks a structurally valid kind with malformed fields.
	ErrValidation = errors.New("invalid suggestion payload")
)

// Kind discriminates the payload variants.
type Kind string

const (
	KindAdjustWorkout  Kind = "adjustWorkout"
	KindSwapWorkouts   Kind = "swapWorkouts"
	KindMoveWorkout    Kind = "moveWorkout"
	KindAddRecoveryDay Kind = "addRecoveryDay"
	KindRebalanceWeek  Kind = "rebalanceWeek"
)

// Payload is the tagged union of suggestion variants. The kind discriminator
// is fixed per concrete type and immutable once decoded; the dispatcher
// switches exhaustively over the concrete types.
type Payload interface {
	Kind() Kind
	validate() error
}

// AdjustWorkout annotates a workout with an intensity/volume delta. It never
// edits duration or TSS fields directly; the annotation is advisory.
type AdjustWorkout struct {
	WorkoutID       string `json:"workoutId"`
	IntensityChange string `json:"intensityChange,omitempty"` // e.g. "easier", "harder"
	VolumeChangePct int    `json:"volumeChangePct,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Kind implements Payload.
func (AdjustWorkout) Kind() Kind { return KindAdjustWorkout }

func (p AdjustWorkout) validate() error {
	if p.WorkoutID == "" {
		return fmt.Errorf("%w: adjustWorkout requires workoutId", ErrValidation)
	}
	if p.IntensityChange == "" && p.VolumeChangePct == 0 {
		return fmt.Errorf("%w: adjustWorkout requires an intensity or volume delta", ErrValidation)
	}
	return nil
}

// SwapWorkouts relocates the source workout to a new date. Despite the name
// this is a one-way move: nothing is moved into the vacated slot. The
// behavior is kept as-is pending product clarification.
type SwapWorkouts struct {
	WorkoutID string `json:"workoutId"`
	NewDate   string `json:"newDate"` // YYYY-MM-DD
}

// Kind implements Payload.
func (SwapWorkouts) Kind() Kind { return KindSwapWorkouts }

func (p SwapWorkouts) validate() error {
	if p.WorkoutID == "" || p.NewDate == "" {
		return fmt.Errorf("%w: swapWorkouts requires workoutId and newDate", ErrValidation)
	}
	return nil
}

// MoveWorkout relocates a single workout to a new date.
type MoveWorkout struct {
	WorkoutID string `json:"workoutId"`
	NewDate   string `json:"newDate"` // YYYY-MM-DD
}

// Kind implements Payload.
func (MoveWorkout) Kind() Kind { return KindMoveWorkout }

func (p MoveWorkout) validate() error {
	if p.WorkoutID == "" || p.NewDate == "" {
		return fmt.Errorf("%w: moveWorkout requires workoutId and newDate", ErrValidation)
	}
	return nil
}

// AddRecoveryDay finds or creates a low-load placeholder on the given date.
type AddRecoveryDay struct {
	Date        string `json:"date"`        // YYYY-MM-DD
	Replacement string `json:"replacement"` // rest, walk, easy_spin
	Reason      string `json:"reason,omitempty"`
}

// Kind implements Payload.
func (AddRecoveryDay) Kind() Kind { return KindAddRecoveryDay }

func (p AddRecoveryDay) validate() error {
	if p.Date == "" {
		return fmt.Errorf("%w: addRecoveryDay requires date", ErrValidation)
	}
	switch p.Replacement {
	case "rest", "walk", "easy_spin":
		return nil
	default:
		return fmt.Errorf("%w: addRecoveryDay replacement %q not one of rest/walk/easy_spin", ErrValidation, p.Replacement)
	}
}

// WorkoutChange is one entry of a rebalance batch. Only title, type,
// duration and TSS may be patched.
type WorkoutChange struct {
	WorkoutID    string   `json:"workoutId"`
	Title        *string  `json:"title,omitempty"`
	Type         *string  `json:"type,omitempty"`
	DurationMin  *int     `json:"durationMin,omitempty"`
	EstimatedTSS *float64 `json:"estimatedTss,omitempty"`
}

// RebalanceWeek applies a batch of per-workout field patches in one
// transaction. Unknown workouts are silently skipped.
type RebalanceWeek struct {
	Changes []WorkoutChange `json:"changes"`
}

// Kind implements Payload.
func (RebalanceWeek) Kind() Kind { return KindRebalanceWeek }

func (p RebalanceWeek) validate() error {
	if len(p.Changes) == 0 {
		return fmt.Errorf("%w: rebalanceWeek requires at least one change", ErrValidation)
	}
	for i, c := range p.Changes {
		if c.WorkoutID == "" {
			return fmt.Errorf("%w: rebalanceWeek change %d missing workoutId", ErrValidation, i)
		}
	}
	return nil
}

// envelope extracts the discriminator before the variant is decoded.
type envelope struct {
	Kind Kind `json:"kind"`
}

// Decode parses a suggestion payload, validating the kind discriminator and
// the variant's required fields. Unrecognized kinds fail with an error naming
// the offending value.
func Decode(data []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrValidation, err)
	}

	var payload Payload
	switch env.Kind {
	case KindAdjustWorkout:
		payload = &AdjustWorkout{}
	case KindSwapWorkouts:
		payload = &SwapWorkouts{}
	case KindMoveWorkout:
		payload = &MoveWorkout{}
	case KindAddRecoveryDay:
		payload = &AddRecoveryDay{}
	case KindRebalanceWeek:
		payload = &RebalanceWeek{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("%w: malformed %s payload: %v", ErrValidation, env.Kind, err)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

// Encode serializes a payload with its kind discriminator injected, producing
// the wire/storage form Decode accepts.
func Encode(p Payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.Kind(), err)
	}
	kind, _ := json.Marshal(p.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

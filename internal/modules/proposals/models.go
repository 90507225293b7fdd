// Package proposals implements the plan-change governance workflow: changes
// landing inside the athlete's lock window are queued as reviewable
// proposals; accepted proposals are applied transactionally.
package proposals

import (
	"errors"
	"time"
)

// Typed failures for the decision workflow. Each aborts with no partial
// writes; they stay distinct so handlers can map them to 404/403/409.
var (
	ErrNotFound       = errors.New("proposal not found")
	ErrNotOwner       = errors.New("proposal belongs to another athlete")
	ErrAlreadyDecided = errors.New("proposal already decided")
)

// Status is the proposal lifecycle state. Transitions are strictly
// PENDING → ACCEPTED or PENDING → DECLINED; terminal states never change.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

// SourceType records who authored the proposed change.
type SourceType string

const (
	SourceDailyCheckIn SourceType = "DAILY_CHECKIN"
	SourceCoach        SourceType = "COACH"
	SourceRule         SourceType = "RULE"
)

// Decision is the athlete's verdict on a pending proposal.
type Decision string

const (
	DecisionAccept  Decision = "ACCEPT"
	DecisionDecline Decision = "DECLINE"
)

// Proposal is a stored, reviewable calendar change awaiting accept/decline.
type Proposal struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	WorkoutID  string     `json:"workoutId,omitempty"`
	CheckInID  string     `json:"checkInId,omitempty"`
	SourceType SourceType `json:"sourceType"`
	Summary    string     `json:"summary"`
	Patch      string     `json:"patch"` // serialized suggestion payload
	Confidence float64    `json:"confidence,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
}

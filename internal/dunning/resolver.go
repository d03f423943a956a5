package dunning

import (
	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/types"
)

// Resolver maps a charge's reminder history to the next escalation stage
// and its fee. Resolution is a pure function of its input; the same input
// always yields the same stage.
type Resolver struct {
	policy Policy
}

// NewResolver creates a resolver over a fixed policy.
func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// ResolveInput is a stable snapshot of a charge's escalation state. The
// caller serializes escalations per charge so the snapshot cannot race.
type ResolveInput struct {
	ChargeID              uuid.UUID
	DaysOverdue           int
	PriorReminderCount    int
	DaysSinceLastReminder int
}

// Resolution is the stage and fee for the next reminder.
type Resolution struct {
	Stage Stage
	Fee   types.Money
}

// Resolve determines the next stage from the prior reminder count. Days
// overdue is audit metadata except when the minimum-interval rule is
// enabled, in which case escalating again within the configured window
// fails with PrematureEscalationError.
func (r *Resolver) Resolve(in ResolveInput) (Resolution, error) {
	if r.policy.MinIntervalEnabled && in.PriorReminderCount > 0 &&
		in.DaysSinceLastReminder < r.policy.MinIntervalDays {
		return Resolution{}, &PrematureEscalationError{
			ChargeID:     in.ChargeID,
			RequiredDays: r.policy.MinIntervalDays,
			ElapsedDays:  in.DaysSinceLastReminder,
		}
	}

	stage := StageForPriorCount(in.PriorReminderCount)
	fee, err := r.policy.Fees.For(stage)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Stage: stage, Fee: fee}, nil
}

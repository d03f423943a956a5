package dunning

import (
	"fmt"

	"github.com/google/uuid"
)

// InvalidChargeError reports malformed money values on a charge, such as a
// negative nominal or paid amount.
type InvalidChargeError struct {
	ChargeID uuid.UUID
	Reason   string
}

func (e *InvalidChargeError) Error() string {
	return fmt.Sprintf("invalid charge %s: %s", e.ChargeID, e.Reason)
}

// AlreadySettledError reports an escalation attempt against a charge with no
// outstanding balance.
type AlreadySettledError struct {
	ChargeID uuid.UUID
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("charge %s is already settled", e.ChargeID)
}

// PrematureEscalationError reports an escalation attempted before the
// configured minimum interval since the previous reminder has elapsed.
type PrematureEscalationError struct {
	ChargeID     uuid.UUID
	RequiredDays int
	ElapsedDays  int
}

func (e *PrematureEscalationError) Error() string {
	return fmt.Sprintf("premature escalation for charge %s: %d days since last reminder, %d required",
		e.ChargeID, e.ElapsedDays, e.RequiredDays)
}

// UnmappedStageError reports a stage with no configured label or fee. This
// is a configuration defect and fails fast rather than rendering a blank
// label into a legal notice.
type UnmappedStageError struct {
	Stage Stage
}

func (e *UnmappedStageError) Error() string {
	return fmt.Sprintf("no mapping configured for stage %q", e.Stage.Token())
}

// MissingFieldError reports party data that the escalation stage requires
// but that is absent, such as a missing client legal address on a final
// notice.
type MissingFieldError struct {
	Field string
	Stage Stage
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing for stage %q", e.Field, e.Stage.Token())
}

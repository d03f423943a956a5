package dunning

import (
	"time"

	"github.com/matthewbaird/rentroll/internal/types"
)

// Assessment is the result of evaluating a charge's ledger at a point in
// time.
type Assessment struct {
	Outstanding types.Money `json:"outstanding"`
	IsSettled   bool        `json:"is_settled"`
	DaysOverdue int         `json:"days_overdue"`
}

// EvaluateLedger computes the outstanding balance of a charge. Overpayment
// clamps to zero outstanding and reads as settled rather than as an error;
// credit handling is outside this engine.
func EvaluateLedger(c Charge, asOf time.Time) (Assessment, error) {
	if c.Amount.IsNegative() {
		return Assessment{}, &InvalidChargeError{ChargeID: c.ID, Reason: "nominal amount is negative"}
	}
	if c.PaidAmount.IsNegative() {
		return Assessment{}, &InvalidChargeError{ChargeID: c.ID, Reason: "paid amount is negative"}
	}

	outstanding := c.Amount.Sub(c.PaidAmount)
	if outstanding.IsNegative() {
		outstanding = types.Cents(0, c.Amount.Currency)
	}

	return Assessment{
		Outstanding: outstanding,
		IsSettled:   outstanding.IsZero(),
		DaysOverdue: daysOverdue(c.DueDate, asOf),
	}, nil
}

// daysOverdue counts whole days between the due date and asOf, never
// negative. A charge due today is not overdue.
func daysOverdue(due, asOf time.Time) int {
	if due.IsZero() || !asOf.After(due) {
		return 0
	}
	return int(asOf.Sub(due).Hours() / 24)
}

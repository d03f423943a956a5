package dunning

import (
	"encoding/json"
	"fmt"

	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/types"
)

// Stage is the escalation severity of a reminder. The set is closed: fee and
// label lookups switch exhaustively over it, so adding a stage forces every
// consumer to be updated.
type Stage int

const (
	StagePaymentReminder Stage = iota
	StageFirstReminder
	StageSecondReminder
	StageFinalNotice
)

// Token returns the stable machine identifier used in persistence, the API,
// and template contexts.
func (s Stage) Token() string {
	switch s {
	case StagePaymentReminder:
		return "payment_reminder"
	case StageFirstReminder:
		return "first_reminder"
	case StageSecondReminder:
		return "second_reminder"
	case StageFinalNotice:
		return "final_notice"
	default:
		return "unknown"
	}
}

func (s Stage) String() string { return s.Token() }

// IsTerminal reports whether no further escalation exists beyond this stage.
func (s Stage) IsTerminal() bool { return s == StageFinalNotice }

// ParseStage converts a machine token back to a Stage.
func ParseStage(token string) (Stage, error) {
	switch token {
	case "payment_reminder":
		return StagePaymentReminder, nil
	case "first_reminder":
		return StageFirstReminder, nil
	case "second_reminder":
		return StageSecondReminder, nil
	case "final_notice":
		return StageFinalNotice, nil
	default:
		return 0, fmt.Errorf("unknown stage token %q", token)
	}
}

// MarshalJSON encodes the stage as its token.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Token())
}

// UnmarshalJSON decodes a stage from its token.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	parsed, err := ParseStage(token)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StageForPriorCount maps the number of previously issued reminders to the
// next stage. Progression is strictly monotonic and terminal: counts at or
// beyond three stabilize at the final notice.
func StageForPriorCount(n int) Stage {
	switch {
	case n <= 0:
		return StagePaymentReminder
	case n == 1:
		return StageFirstReminder
	case n == 2:
		return StageSecondReminder
	default:
		return StageFinalNotice
	}
}

// FeeSchedule holds the configured fee per stage. One field per stage keeps
// the mapping total by construction.
type FeeSchedule struct {
	PaymentReminder types.Money
	FirstReminder   types.Money
	SecondReminder  types.Money
	FinalNotice     types.Money
}

// For returns the fee for a stage.
func (f FeeSchedule) For(stage Stage) (types.Money, error) {
	switch stage {
	case StagePaymentReminder:
		return f.PaymentReminder, nil
	case StageFirstReminder:
		return f.FirstReminder, nil
	case StageSecondReminder:
		return f.SecondReminder, nil
	case StageFinalNotice:
		return f.FinalNotice, nil
	default:
		return types.Money{}, &UnmappedStageError{Stage: stage}
	}
}

// StageLabels holds the localized display label per stage. An empty label is
// a configuration defect, surfaced as UnmappedStageError rather than
// rendered blank.
type StageLabels struct {
	PaymentReminder string
	FirstReminder   string
	SecondReminder  string
	FinalNotice     string
}

// For returns the display label for a stage.
func (l StageLabels) For(stage Stage) (string, error) {
	var label string
	switch stage {
	case StagePaymentReminder:
		label = l.PaymentReminder
	case StageFirstReminder:
		label = l.FirstReminder
	case StageSecondReminder:
		label = l.SecondReminder
	case StageFinalNotice:
		label = l.FinalNotice
	default:
		return "", &UnmappedStageError{Stage: stage}
	}
	if label == "" {
		return "", &UnmappedStageError{Stage: stage}
	}
	return label, nil
}

// Policy bundles the deployment-specific dunning rules: fee schedule,
// labels, minimum escalation interval, required party fields per stage, and
// locale. Constructed once at startup from configuration and read-only
// afterwards.
type Policy struct {
	Currency           string
	Fees               FeeSchedule
	Labels             StageLabels
	MinIntervalEnabled bool
	MinIntervalDays    int
	// RequiredFields lists context paths that must be non-empty for a
	// stage, keyed by stage token, e.g. final_notice requires
	// client.address.
	RequiredFields map[string][]string
	Locale         format.Locale
}

// DefaultPolicy returns the German defaults: no fee on the courtesy
// reminder, escalating fees afterwards, interval rule off.
func DefaultPolicy() Policy {
	return Policy{
		Currency: "EUR",
		Fees: FeeSchedule{
			PaymentReminder: types.Cents(0, "EUR"),
			FirstReminder:   types.Cents(500, "EUR"),
			SecondReminder:  types.Cents(1000, "EUR"),
			FinalNotice:     types.Cents(1500, "EUR"),
		},
		Labels: StageLabels{
			PaymentReminder: "Zahlungserinnerung",
			FirstReminder:   "1. Mahnung",
			SecondReminder:  "2. Mahnung",
			FinalNotice:     "Letzte Mahnung",
		},
		RequiredFields: map[string][]string{
			"final_notice": {"tenant.address", "client.address"},
		},
		Locale: format.DefaultLocale(),
	}
}

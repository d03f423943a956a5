package dunning

import (
	"time"

	"github.com/matthewbaird/rentroll/internal/format"
	"github.com/matthewbaird/rentroll/internal/template"
	"github.com/matthewbaird/rentroll/internal/types"
)

// ContextBuilder assembles the flat rendering namespace a template sees.
// Raw values and their locale-formatted counterparts sit under parallel
// keys, so templates can choose either form without calling helpers.
type ContextBuilder struct {
	policy    Policy
	formatter *format.Formatter
}

// NewContextBuilder creates a builder for a fixed policy.
func NewContextBuilder(policy Policy) *ContextBuilder {
	return &ContextBuilder{policy: policy, formatter: format.New(policy.Locale)}
}

// BuildInput carries everything a document context is computed from.
type BuildInput struct {
	Charge       Charge
	Parties      PartySet
	Outstanding  types.Money
	Stage        Stage
	Fee          types.Money
	ReminderDate time.Time
	Notes        string
}

// Build computes the rendering context. It fails with UnmappedStageError
// when the stage has no configured label, and with MissingFieldError when a
// field the stage's policy requires is empty. Optional fields render as
// empty strings; only policy-required ones fail hard.
func (b *ContextBuilder) Build(in BuildInput) (template.Context, error) {
	label, err := b.policy.Labels.For(in.Stage)
	if err != nil {
		return nil, err
	}

	total := in.Outstanding.Add(in.Fee)

	ctx := template.Context{
		"amount":                 in.Outstanding,
		"amount_formatted":       b.formatter.Money(in.Outstanding),
		"reminder_fee":           in.Fee,
		"reminder_fee_formatted": b.formatter.Money(in.Fee),
		"total_amount":           total,
		"total_amount_formatted": b.formatter.Money(total),
		"reminder_type":          in.Stage.Token(),
		"reminder_type_label":    label,
		"reminder_date":          b.formatter.Date(in.ReminderDate),
		"reminder_date_raw":      isoDate(in.ReminderDate),
		"notes":                  in.Notes,
		"tenant": map[string]any{
			"first_name": in.Parties.Tenant.FirstName,
			"last_name":  in.Parties.Tenant.LastName,
			"full_name":  in.Parties.Tenant.FullName(),
			"address":    in.Parties.Tenant.Address,
			"email":      in.Parties.Tenant.Email,
			"phone":      in.Parties.Tenant.Phone,
		},
		"property": map[string]any{
			"name":    in.Parties.Property.Name,
			"address": in.Parties.Property.Address,
		},
		"unit": map[string]any{
			"label":       in.Parties.Unit.Label,
			"unit_number": in.Parties.Unit.UnitNumber,
		},
		"charge": map[string]any{
			"amount":                in.Charge.Amount,
			"amount_formatted":      b.formatter.Money(in.Charge.Amount),
			"paid_amount":           in.Charge.PaidAmount,
			"paid_amount_formatted": b.formatter.Money(in.Charge.PaidAmount),
			"due_date":              b.formatter.Date(in.Charge.DueDate),
			"due_date_raw":          isoDate(in.Charge.DueDate),
			"description":           in.Charge.Description,
		},
		"client": map[string]any{
			"name":    in.Parties.Client.Name,
			"address": in.Parties.Client.Address,
			"email":   in.Parties.Client.Email,
			"phone":   in.Parties.Client.Phone,
		},
		"owner": map[string]any{
			"name":  in.Parties.Owner.Name,
			"email": in.Parties.Owner.Email,
		},
	}

	for _, field := range b.policy.RequiredFields[in.Stage.Token()] {
		val, ok := ctx.Get(field)
		if !ok || isEmpty(val) {
			return nil, &MissingFieldError{Field: field, Stage: in.Stage}
		}
	}
	return ctx, nil
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func isEmpty(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

package dunning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/template"
)

var testNow = time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)

func testGenerator(policy Policy) *Generator {
	return NewGenerator(policy, template.Strict, func() time.Time { return testNow })
}

func priorReminders(stages ...Stage) []Reminder {
	out := make([]Reminder, len(stages))
	for i, stage := range stages {
		out[i] = Reminder{
			Stage:       stage,
			GeneratedAt: testNow.AddDate(0, 0, -(len(stages)-i)*14),
		}
	}
	return out
}

func TestGenerateFirstDocument(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	res, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 0),
		Parties:      testParties(),
		TemplateText: "{{ reminder_type_label }}: {{ amount_formatted }}, gesamt {{ total_amount_formatted }}",
	})
	require.NoError(t, err)

	assert.Equal(t, "Zahlungserinnerung: 700,00 €, gesamt 700,00 €", res.HTML)
	assert.Equal(t, StagePaymentReminder, res.Reminder.Stage)
	assert.True(t, res.Reminder.Fee.IsZero())
	assert.Equal(t, testNow, res.Reminder.GeneratedAt)
	assert.NotEqual(t, "", res.Reminder.ID.String())
}

func TestGeneratePartialPaymentEscalation(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	res, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 20000),
		Parties:      testParties(),
		History:      priorReminders(StagePaymentReminder),
		TemplateText: "{{ amount }} + {{ reminder_fee }} = {{ total_amount }}",
	})
	require.NoError(t, err)

	assert.Equal(t, "500.00 + 5.00 = 505.00", res.HTML)
	assert.Equal(t, StageFirstReminder, res.Reminder.Stage)
	assert.Equal(t, int64(500), res.Reminder.Fee.AmountCents)
}

func TestGenerateSettledCharge(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	charge := testCharge(70000, 70000)
	_, err := g.Generate(GenerateInput{
		Charge:       charge,
		Parties:      testParties(),
		TemplateText: "egal",
	})

	var settled *AlreadySettledError
	require.ErrorAs(t, err, &settled)
	assert.Equal(t, charge.ID, settled.ChargeID)
}

func TestGenerateUnknownContextPath(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	_, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 0),
		Parties:      testParties(),
		TemplateText: "{{ unknown.path }}",
	})

	var unresolved *template.UnresolvedPlaceholderError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "unknown.path", unresolved.Path)
}

func TestGeneratePrematureEscalation(t *testing.T) {
	policy := DefaultPolicy()
	policy.MinIntervalEnabled = true
	policy.MinIntervalDays = 14
	g := testGenerator(policy)

	history := priorReminders(
		StagePaymentReminder, StageFirstReminder, StageSecondReminder,
		StageFinalNotice, StageFinalNotice,
	)
	history[len(history)-1].GeneratedAt = testNow.AddDate(0, 0, -3)

	_, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 0),
		Parties:      testParties(),
		History:      history,
		TemplateText: "egal",
	})

	var premature *PrematureEscalationError
	require.ErrorAs(t, err, &premature)
	assert.Equal(t, 3, premature.ElapsedDays)
	assert.Equal(t, 14, premature.RequiredDays)
}

func TestGenerateDeterministicOutput(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	in := GenerateInput{
		Charge:       testCharge(70000, 20000),
		Parties:      testParties(),
		History:      priorReminders(StagePaymentReminder),
		TemplateText: DefaultTemplateBody,
		Notes:        "Ratenzahlung möglich",
	}

	first, err := g.Generate(in)
	require.NoError(t, err)
	second, err := g.Generate(in)
	require.NoError(t, err)
	assert.Equal(t, first.HTML, second.HTML)
}

func TestGenerateDefaultTemplate(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	res, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 20000),
		Parties:      testParties(),
		History:      priorReminders(StagePaymentReminder),
		TemplateText: DefaultTemplateBody,
	})
	require.NoError(t, err)

	assert.Contains(t, res.HTML, "1. Mahnung")
	assert.Contains(t, res.HTML, "500,00 €")
	assert.Contains(t, res.HTML, "Mahngebühr")
	assert.Contains(t, res.HTML, "Max Mustermann")
	assert.NotContains(t, res.HTML, "{{")
	assert.NotContains(t, res.HTML, "{%")
}

func TestGenerateNoFeeOmitsFeeRow(t *testing.T) {
	g := testGenerator(DefaultPolicy())
	res, err := g.Generate(GenerateInput{
		Charge:       testCharge(70000, 0),
		Parties:      testParties(),
		TemplateText: DefaultTemplateBody,
	})
	require.NoError(t, err)
	assert.NotContains(t, res.HTML, "Mahngebühr")
	assert.Contains(t, res.HTML, "Zahlungserinnerung")
}

func TestSampleContextRenders(t *testing.T) {
	policy := DefaultPolicy()
	ctx, err := SampleContext(policy)
	require.NoError(t, err)

	g := testGenerator(policy)
	out, err := g.Renderer().Render(DefaultTemplateBody, ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Mahnung")
}

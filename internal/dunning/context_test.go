package dunning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/types"
)

func testParties() PartySet {
	return PartySet{
		Tenant: Tenant{
			FirstName: "Max",
			LastName:  "Mustermann",
			Address:   "Musterstraße 1, 10115 Berlin",
			Email:     "max@example.com",
		},
		Property: Property{Name: "Wohnanlage Mitte", Address: "Musterstraße 1, 10115 Berlin"},
		Unit:     Unit{Label: "WE 04", UnitNumber: "4"},
		Client:   Client{Name: "Hausverwaltung Beispiel GmbH", Address: "Verwalterweg 2, 10117 Berlin"},
		Owner:    Owner{Name: "Immobilien Beispiel KG"},
	}
}

func TestBuildContextParallelKeys(t *testing.T) {
	b := NewContextBuilder(DefaultPolicy())
	ctx, err := b.Build(BuildInput{
		Charge:       testCharge(70000, 20000),
		Parties:      testParties(),
		Outstanding:  types.Cents(50000, "EUR"),
		Stage:        StageFirstReminder,
		Fee:          types.Cents(500, "EUR"),
		ReminderDate: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	amount, ok := ctx.Get("amount")
	require.True(t, ok)
	assert.Equal(t, types.Cents(50000, "EUR"), amount)

	formatted, _ := ctx.Get("amount_formatted")
	assert.Equal(t, "500,00 €", formatted)

	total, _ := ctx.Get("total_amount")
	assert.Equal(t, int64(50500), total.(types.Money).AmountCents)
	totalFormatted, _ := ctx.Get("total_amount_formatted")
	assert.Equal(t, "505,00 €", totalFormatted)

	token, _ := ctx.Get("reminder_type")
	assert.Equal(t, "first_reminder", token)
	label, _ := ctx.Get("reminder_type_label")
	assert.Equal(t, "1. Mahnung", label)

	date, _ := ctx.Get("reminder_date")
	assert.Equal(t, "15.12.2024", date)
	raw, _ := ctx.Get("reminder_date_raw")
	assert.Equal(t, "2024-12-15", raw)

	name, _ := ctx.Get("tenant.full_name")
	assert.Equal(t, "Max Mustermann", name)

	dueRaw, _ := ctx.Get("charge.due_date_raw")
	assert.Equal(t, "2024-12-01", dueRaw)
}

func TestBuildContextOptionalFieldsEmpty(t *testing.T) {
	parties := testParties()
	parties.Tenant.Phone = ""
	parties.Owner.Email = ""

	b := NewContextBuilder(DefaultPolicy())
	ctx, err := b.Build(BuildInput{
		Charge:      testCharge(70000, 0),
		Parties:     parties,
		Outstanding: types.Cents(70000, "EUR"),
		Stage:       StagePaymentReminder,
		Fee:         types.Cents(0, "EUR"),
	})
	require.NoError(t, err)

	phone, ok := ctx.Get("tenant.phone")
	require.True(t, ok)
	assert.Equal(t, "", phone)
}

func TestBuildContextMissingRequiredField(t *testing.T) {
	parties := testParties()
	parties.Client.Address = ""

	b := NewContextBuilder(DefaultPolicy())
	_, err := b.Build(BuildInput{
		Charge:      testCharge(70000, 0),
		Parties:     parties,
		Outstanding: types.Cents(70000, "EUR"),
		Stage:       StageFinalNotice,
		Fee:         types.Cents(1500, "EUR"),
	})

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "client.address", missing.Field)
	assert.Equal(t, StageFinalNotice, missing.Stage)
}

func TestBuildContextRequiredFieldsAreStageScoped(t *testing.T) {
	// The same missing address passes on an early stage that does not
	// require it.
	parties := testParties()
	parties.Client.Address = ""

	b := NewContextBuilder(DefaultPolicy())
	_, err := b.Build(BuildInput{
		Charge:      testCharge(70000, 0),
		Parties:     parties,
		Outstanding: types.Cents(70000, "EUR"),
		Stage:       StagePaymentReminder,
		Fee:         types.Cents(0, "EUR"),
	})
	assert.NoError(t, err)
}

func TestBuildContextUnmappedStage(t *testing.T) {
	policy := DefaultPolicy()
	policy.Labels.SecondReminder = ""

	b := NewContextBuilder(policy)
	_, err := b.Build(BuildInput{
		Charge:      testCharge(70000, 0),
		Parties:     testParties(),
		Outstanding: types.Cents(70000, "EUR"),
		Stage:       StageSecondReminder,
		Fee:         types.Cents(1000, "EUR"),
	})

	var unmapped *UnmappedStageError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, StageSecondReminder, unmapped.Stage)
}

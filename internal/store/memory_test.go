package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/types"
)

func seedCharge(t *testing.T, s Store, amountCents, paidCents int64, due time.Time) dunning.Charge {
	t.Helper()
	c := dunning.Charge{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		UnitID:      uuid.New(),
		Description: "Miete",
		Amount:      types.Cents(amountCents, "EUR"),
		PaidAmount:  types.Cents(paidCents, "EUR"),
		DueDate:     due,
		CreatedAt:   due.AddDate(0, -1, 0),
	}
	require.NoError(t, s.CreateCharge(context.Background(), c))
	return c
}

func TestMemoryStoreChargeRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	c := seedCharge(t, s, 70000, 0, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))

	got, err := s.GetCharge(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = s.GetCharge(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAddPaymentUpdatesCharge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c := seedCharge(t, s, 70000, 0, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))

	err := s.AddPayment(ctx, dunning.Payment{
		ID:       uuid.New(),
		ChargeID: c.ID,
		Amount:   types.Cents(20000, "EUR"),
		PaidAt:   time.Now(),
	})
	require.NoError(t, err)

	got, err := s.GetCharge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), got.PaidAmount.AmountCents)

	payments, err := s.ListPayments(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	err = s.AddPayment(ctx, dunning.Payment{ID: uuid.New(), ChargeID: uuid.New(), Amount: types.Cents(1, "EUR")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListChargesFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	due := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	open := seedCharge(t, s, 70000, 0, due)
	seedCharge(t, s, 50000, 50000, due)                // settled
	future := seedCharge(t, s, 30000, 0, due.AddDate(0, 2, 0)) // not yet due

	unsettled, err := s.ListCharges(ctx, ChargeFilter{Unsettled: true})
	require.NoError(t, err)
	assert.Len(t, unsettled, 2)

	overdue, err := s.ListCharges(ctx, ChargeFilter{Unsettled: true, OverdueAt: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, open.ID, overdue[0].ID)

	byTenant, err := s.ListCharges(ctx, ChargeFilter{TenantID: future.TenantID})
	require.NoError(t, err)
	require.Len(t, byTenant, 1)
	assert.Equal(t, future.ID, byTenant[0].ID)
}

func TestMemoryStoreRemindersOrdered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	chargeID := uuid.New()
	base := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	for i, stage := range []dunning.Stage{dunning.StageSecondReminder, dunning.StagePaymentReminder, dunning.StageFirstReminder} {
		require.NoError(t, s.CreateReminder(ctx, dunning.Reminder{
			ID:          uuid.New(),
			ChargeID:    chargeID,
			Stage:       stage,
			Fee:         types.Cents(0, "EUR"),
			GeneratedAt: base.AddDate(0, 0, (2-i)*14),
		}))
	}

	got, err := s.ListRemindersByCharge(ctx, chargeID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, dunning.StagePaymentReminder, got[0].Stage)
	assert.Equal(t, dunning.StageFirstReminder, got[1].Stage)
	assert.Equal(t, dunning.StageSecondReminder, got[2].Stage)
}

func TestMemoryStoreTemplateLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tpl := dunning.NoticeTemplate{ID: uuid.New(), Name: "standard", Body: "{{ amount_formatted }}"}
	require.NoError(t, s.CreateTemplate(ctx, tpl))

	tpl.Body = "{{ total_amount_formatted }}"
	require.NoError(t, s.UpdateTemplate(ctx, tpl))

	got, err := s.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "{{ total_amount_formatted }}", got.Body)

	require.NoError(t, s.DeleteTemplate(ctx, tpl.ID))
	_, err = s.GetTemplate(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UpdateTemplate(ctx, tpl), ErrNotFound)
}

func TestPartySetForCharge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	property := dunning.Property{ID: uuid.New(), Name: "Wohnanlage Mitte"}
	unit := dunning.Unit{ID: uuid.New(), PropertyID: property.ID, Label: "WE 04"}
	tenant := dunning.Tenant{ID: uuid.New(), FirstName: "Max", LastName: "Mustermann"}
	require.NoError(t, s.PutProperty(ctx, property))
	require.NoError(t, s.PutUnit(ctx, unit))
	require.NoError(t, s.PutTenant(ctx, tenant))
	require.NoError(t, s.PutClient(ctx, dunning.Client{Name: "Hausverwaltung Beispiel GmbH"}))

	charge := dunning.Charge{ID: uuid.New(), TenantID: tenant.ID, UnitID: unit.ID}
	parties, err := PartySetForCharge(ctx, s, charge)
	require.NoError(t, err)

	assert.Equal(t, "Max Mustermann", parties.Tenant.FullName())
	assert.Equal(t, "Wohnanlage Mitte", parties.Property.Name)
	assert.Equal(t, "Hausverwaltung Beispiel GmbH", parties.Client.Name)
	// Owner is optional; absence resolves to the zero value.
	assert.Equal(t, "", parties.Owner.Name)

	_, err = PartySetForCharge(ctx, s, dunning.Charge{TenantID: uuid.New(), UnitID: unit.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

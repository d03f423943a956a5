package dunning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/rentroll/internal/types"
)

func testCharge(amountCents, paidCents int64) Charge {
	return Charge{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		UnitID:      uuid.New(),
		Description: "Miete Dezember 2024",
		Amount:      types.Cents(amountCents, "EUR"),
		PaidAmount:  types.Cents(paidCents, "EUR"),
		DueDate:     time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateLedgerUnpaid(t *testing.T) {
	a, err := EvaluateLedger(testCharge(70000, 0), time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(70000), a.Outstanding.AmountCents)
	assert.False(t, a.IsSettled)
	assert.Equal(t, 14, a.DaysOverdue)
}

func TestEvaluateLedgerPartialPayment(t *testing.T) {
	a, err := EvaluateLedger(testCharge(70000, 20000), time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(50000), a.Outstanding.AmountCents)
	assert.False(t, a.IsSettled)
}

func TestEvaluateLedgerSettled(t *testing.T) {
	a, err := EvaluateLedger(testCharge(70000, 70000), time.Now())
	require.NoError(t, err)
	assert.True(t, a.IsSettled)
	assert.True(t, a.Outstanding.IsZero())
}

func TestEvaluateLedgerOverpaymentClampsToSettled(t *testing.T) {
	a, err := EvaluateLedger(testCharge(70000, 80000), time.Now())
	require.NoError(t, err)
	assert.True(t, a.IsSettled)
	assert.Equal(t, int64(0), a.Outstanding.AmountCents)
	assert.False(t, a.Outstanding.IsNegative())
}

func TestEvaluateLedgerNegativeAmounts(t *testing.T) {
	var invalid *InvalidChargeError

	_, err := EvaluateLedger(testCharge(-100, 0), time.Now())
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "nominal")

	_, err = EvaluateLedger(testCharge(100, -50), time.Now())
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "paid")
}

func TestEvaluateLedgerNotYetDue(t *testing.T) {
	a, err := EvaluateLedger(testCharge(70000, 0), time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, a.DaysOverdue)
}

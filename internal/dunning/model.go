// Package dunning implements the payment-reminder document engine: ledger
// arithmetic over a charge and its payments, the escalation stage state
// machine, rendering-context assembly, and the top-level document generator.
// The package is pure domain logic; persistence and delivery live with the
// caller.
package dunning

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/types"
)

// Charge is an unpaid (or partially paid) obligation of a tenant. PaidAmount
// is the running sum of recorded payments, maintained by the store.
type Charge struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	UnitID      uuid.UUID   `json:"unit_id"`
	Description string      `json:"description"`
	Amount      types.Money `json:"amount"`
	PaidAmount  types.Money `json:"paid_amount"`
	DueDate     time.Time   `json:"due_date"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Payment records money received against a charge. Payments are append-only;
// corrections are new payments, never edits.
type Payment struct {
	ID       uuid.UUID   `json:"id"`
	ChargeID uuid.UUID   `json:"charge_id"`
	Amount   types.Money `json:"amount"`
	PaidAt   time.Time   `json:"paid_at"`
	Note     string      `json:"note,omitempty"`
}

// Reminder is one issued escalation document. Created exactly once per
// escalation event and immutable thereafter; a charge accumulates an ordered
// sequence of reminders at non-decreasing stages.
type Reminder struct {
	ID          uuid.UUID   `json:"id"`
	ChargeID    uuid.UUID   `json:"charge_id"`
	Stage       Stage       `json:"stage"`
	Fee         types.Money `json:"fee_amount"`
	GeneratedAt time.Time   `json:"generated_at"`
	Notes       string      `json:"notes,omitempty"`
	HTML        string      `json:"-"`
}

// Tenant is the addressee of a reminder.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Address   string    `json:"address"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
}

// FullName joins first and last name, tolerating either being empty.
func (t Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Property is the building a unit belongs to.
type Property struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	Label      string    `json:"label"`
	UnitNumber string    `json:"unit_number"`
}

// Client is the managing party issuing the notice, whose legal address
// appears in the letterhead.
type Client struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Email   string    `json:"email,omitempty"`
	Phone   string    `json:"phone,omitempty"`
}

// Owner is the property owner on whose behalf the client manages.
type Owner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// PartySet bundles the already-loaded party records a document is built
// from. The engine never loads these itself.
type PartySet struct {
	Tenant   Tenant
	Property Property
	Unit     Unit
	Client   Client
	Owner    Owner
}

// NoticeTemplate is a user-authored document template.
type NoticeTemplate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Package store persists charges, payments, reminders, templates, and party
// records. Two implementations exist: an in-memory store for tests and a
// SQLite store for production.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/dunning"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ChargeFilter narrows ListCharges.
type ChargeFilter struct {
	TenantID  uuid.UUID // zero value matches all
	Unsettled bool      // only charges with outstanding balance
	OverdueAt time.Time // only charges past due at this instant; zero skips
}

// Store is the persistence interface. Reminders are insert-only: a reminder
// is an issued legal document and is never updated or deleted.
type Store interface {
	CreateCharge(ctx context.Context, c dunning.Charge) error
	GetCharge(ctx context.Context, id uuid.UUID) (dunning.Charge, error)
	ListCharges(ctx context.Context, f ChargeFilter) ([]dunning.Charge, error)

	// AddPayment appends a payment and increments the charge's paid
	// amount atomically.
	AddPayment(ctx context.Context, p dunning.Payment) error
	ListPayments(ctx context.Context, chargeID uuid.UUID) ([]dunning.Payment, error)

	CreateReminder(ctx context.Context, r dunning.Reminder) error
	GetReminder(ctx context.Context, id uuid.UUID) (dunning.Reminder, error)
	ListRemindersByCharge(ctx context.Context, chargeID uuid.UUID) ([]dunning.Reminder, error)
	ListReminders(ctx context.Context) ([]dunning.Reminder, error)

	CreateTemplate(ctx context.Context, t dunning.NoticeTemplate) error
	GetTemplate(ctx context.Context, id uuid.UUID) (dunning.NoticeTemplate, error)
	ListTemplates(ctx context.Context) ([]dunning.NoticeTemplate, error)
	UpdateTemplate(ctx context.Context, t dunning.NoticeTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	PutTenant(ctx context.Context, t dunning.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (dunning.Tenant, error)
	PutProperty(ctx context.Context, p dunning.Property) error
	GetProperty(ctx context.Context, id uuid.UUID) (dunning.Property, error)
	PutUnit(ctx context.Context, u dunning.Unit) error
	GetUnit(ctx context.Context, id uuid.UUID) (dunning.Unit, error)

	// Client and owner are deployment-wide singletons on the letterhead.
	PutClient(ctx context.Context, c dunning.Client) error
	GetClient(ctx context.Context) (dunning.Client, error)
	PutOwner(ctx context.Context, o dunning.Owner) error
	GetOwner(ctx context.Context) (dunning.Owner, error)

	Close() error
}

// PartySetForCharge loads every party a document for the charge needs:
// tenant, unit, the unit's property, and the letterhead client and owner. A
// missing client or owner resolves to a zero value; required-field policy
// decides whether that is fatal.
func PartySetForCharge(ctx context.Context, s Store, c dunning.Charge) (dunning.PartySet, error) {
	tenant, err := s.GetTenant(ctx, c.TenantID)
	if err != nil {
		return dunning.PartySet{}, err
	}
	unit, err := s.GetUnit(ctx, c.UnitID)
	if err != nil {
		return dunning.PartySet{}, err
	}
	property, err := s.GetProperty(ctx, unit.PropertyID)
	if err != nil {
		return dunning.PartySet{}, err
	}
	client, err := s.GetClient(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return dunning.PartySet{}, err
	}
	owner, err := s.GetOwner(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return dunning.PartySet{}, err
	}
	return dunning.PartySet{
		Tenant:   tenant,
		Unit:     unit,
		Property: property,
		Client:   client,
		Owner:    owner,
	}, nil
}

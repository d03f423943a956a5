// Package event defines the domain events emitted after state changes and
// the recorder that fans them into the audit trail before publishing.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/types"
)

// EntityRef names one entity an event touches and its role in the event.
type EntityRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "context", "related"
}

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []EntityRef
	Summary          string
	Category         string // "charge", "payment", "reminder", "template"
	Payload          json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ChargeCreatedPayload carries event-specific data for ChargeCreated.
type ChargeCreatedPayload struct {
	ChargeID    string      `json:"charge_id"`
	TenantID    string      `json:"tenant_id"`
	UnitID      string      `json:"unit_id"`
	Amount      types.Money `json:"amount"`
	DueDate     time.Time   `json:"due_date"`
	Description string      `json:"description"`
}

func NewChargeCreated(p ChargeCreatedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "charge_created",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "charge", EntityID: p.ChargeID, Role: "subject"},
			{EntityType: "tenant", EntityID: p.TenantID, Role: "related"},
		},
		Summary:  fmt.Sprintf("Charge created: %s (%s)", p.Description, p.Amount),
		Category: "charge",
		Payload:  mustJSON(p),
	}
}

// PaymentRecordedPayload carries event-specific data for PaymentRecorded.
type PaymentRecordedPayload struct {
	PaymentID  string      `json:"payment_id"`
	ChargeID   string      `json:"charge_id"`
	TenantID   string      `json:"tenant_id"`
	Amount     types.Money `json:"amount"`
	NewBalance types.Money `json:"new_balance"`
}

func NewPaymentRecorded(p PaymentRecordedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "payment_recorded",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "charge", EntityID: p.ChargeID, Role: "subject"},
			{EntityType: "tenant", EntityID: p.TenantID, Role: "related"},
		},
		Summary:  fmt.Sprintf("Payment of %s received, balance %s", p.Amount, p.NewBalance),
		Category: "payment",
		Payload:  mustJSON(p),
	}
}

// ReminderGeneratedPayload carries event-specific data for ReminderGenerated.
type ReminderGeneratedPayload struct {
	ReminderID string      `json:"reminder_id"`
	ChargeID   string      `json:"charge_id"`
	TenantID   string      `json:"tenant_id"`
	Stage      string      `json:"stage"`
	Fee        types.Money `json:"fee"`
	Total      types.Money `json:"total"`
}

func NewReminderGenerated(p ReminderGeneratedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "reminder_generated",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "reminder", EntityID: p.ReminderID, Role: "subject"},
			{EntityType: "charge", EntityID: p.ChargeID, Role: "context"},
			{EntityType: "tenant", EntityID: p.TenantID, Role: "related"},
		},
		Summary:  fmt.Sprintf("Reminder issued at stage %s, total due %s", p.Stage, p.Total),
		Category: "reminder",
		Payload:  mustJSON(p),
	}
}

// DunningRunCompletedPayload carries event-specific data for
// DunningRunCompleted.
type DunningRunCompletedPayload struct {
	RunID   string `json:"run_id"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

func NewDunningRunCompleted(p DunningRunCompletedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "dunning_run_completed",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "dunning_run", EntityID: p.RunID, Role: "subject"},
		},
		Summary:  fmt.Sprintf("Dunning run finished: %d created, %d skipped", p.Created, p.Skipped),
		Category: "reminder",
		Payload:  mustJSON(p),
	}
}

// TemplateSavedPayload carries event-specific data for TemplateSaved.
type TemplateSavedPayload struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Created    bool   `json:"created"`
}

func NewTemplateSaved(p TemplateSavedPayload) DomainEvent {
	verb := "updated"
	if p.Created {
		verb = "created"
	}
	return DomainEvent{
		ID:         newID(),
		EventType:  "template_saved",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "template", EntityID: p.TemplateID, Role: "subject"},
		},
		Summary:  fmt.Sprintf("Template %q %s", p.Name, verb),
		Category: "template",
		Payload:  mustJSON(p),
	}
}

func NewTemplateDeleted(templateID uuid.UUID, name string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "template_deleted",
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "template", EntityID: templateID.String(), Role: "subject"},
		},
		Summary:  fmt.Sprintf("Template %q deleted", name),
		Category: "template",
	}
}

// ReminderEventFromResult builds the ReminderGenerated event for a
// freshly generated document.
func ReminderEventFromResult(charge dunning.Charge, res dunning.GenerateResult, outstanding types.Money) DomainEvent {
	return NewReminderGenerated(ReminderGeneratedPayload{
		ReminderID: res.Reminder.ID.String(),
		ChargeID:   charge.ID.String(),
		TenantID:   charge.TenantID.String(),
		Stage:      res.Reminder.Stage.Token(),
		Fee:        res.Reminder.Fee,
		Total:      outstanding.Add(res.Reminder.Fee),
	})
}

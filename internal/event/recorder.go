package event

import (
	"context"

	"github.com/matthewbaird/rentroll/internal/audit"
)

// Recorder writes domain events to the audit trail.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// AuditRecorder implements Recorder by fanning out a DomainEvent into one
// audit entry per affected entity. If a Publisher is set, the event is also
// published after the store write succeeds.
type AuditRecorder struct {
	store audit.Store
	bus   Publisher
}

// NewAuditRecorder creates a recorder backed by the given audit store.
func NewAuditRecorder(store audit.Store) *AuditRecorder {
	return &AuditRecorder{store: store}
}

// SetPublisher attaches an event bus. Events are published after store
// writes.
func (r *AuditRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record fans out a DomainEvent into audit entries, writes them, and
// publishes to the event bus.
func (r *AuditRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entries := make([]audit.Entry, 0, len(evt.AffectedEntities))
	for _, ref := range evt.AffectedEntities {
		entries = append(entries, audit.Entry{
			EventID:    evt.ID,
			EventType:  evt.EventType,
			OccurredAt: evt.OccurredAt,
			EntityType: ref.EntityType,
			EntityID:   ref.EntityID,
			Role:       ref.Role,
			Summary:    evt.Summary,
			Category:   evt.Category,
			Payload:    evt.Payload,
		})
	}
	if err := r.store.WriteEntries(ctx, entries); err != nil {
		return err
	}

	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}

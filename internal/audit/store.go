// Package audit persists the append-only audit trail of domain events.
// Every generated reminder, payment, and template change lands here as one
// entry per affected entity, queryable per entity for a document's history.
package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one audit record. An event touching several entities fans out
// into one entry per entity so each entity's history reads complete.
type Entry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Role       string          `json:"role"`
	Summary    string          `json:"summary"`
	Category   string          `json:"category"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Store reads and writes audit entries.
type Store interface {
	WriteEntries(ctx context.Context, entries []Entry) error
	// QueryByEntity returns entries for one entity, newest first.
	QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
}

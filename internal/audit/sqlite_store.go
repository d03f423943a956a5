package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore implements Store on the same database handle as the main
// store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the store and its table.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			event_id    TEXT NOT NULL,
			event_type  TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			role        TEXT NOT NULL,
			summary     TEXT NOT NULL,
			category    TEXT NOT NULL,
			payload     TEXT,
			PRIMARY KEY (entity_type, entity_id, occurred_at, event_id)
		);
		CREATE INDEX IF NOT EXISTS idx_audit_entity_time
			ON audit_entries (entity_type, entity_id, occurred_at DESC);
	`)
	if err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) WriteEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO audit_entries
		(event_id, event_type, occurred_at, entity_type, entity_id, role, summary, category, payload) VALUES `)
	args := make([]any, 0, len(entries)*9)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.EventID, e.EventType, e.OccurredAt.UTC().Format(time.RFC3339Nano),
			e.EntityType, e.EntityID, e.Role, e.Summary, e.Category, string(e.Payload))
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *SQLiteStore) QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_type, occurred_at, entity_type, entity_id, role, summary, category, payload
		FROM audit_entries
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var occurredAt, payload string
		if err := rows.Scan(&e.EventID, &e.EventType, &occurredAt, &e.EntityType,
			&e.EntityID, &e.Role, &e.Summary, &e.Category, &payload); err != nil {
			return nil, err
		}
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, err
		}
		if payload != "" {
			e.Payload = json.RawMessage(payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

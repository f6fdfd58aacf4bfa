// Package audit defines the audit trail recorded for write workflows.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"stocktally/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionCount  Action = "count"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID          id.ID     `db:"id" json:"id"`
	Action      Action    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entityType"`
	EntityID    id.ID     `db:"entity_id" json:"entityId"`
	Description string    `db:"description" json:"description"`
	SessionID   *id.ID    `db:"session_id" json:"sessionId,omitempty"`

	// Payload is the recorded state (document lines, count entries).
	// Large payloads are compressed at the storage layer.
	Payload json.RawMessage `db:"payload" json:"payload,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Recorder records audit entries. Recording is best-effort: write
// workflows log failures but do not abort on them.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error

	// Recent returns the most recent entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

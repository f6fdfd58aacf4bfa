package counting

import (
	"context"
	"time"

	"stocktally/internal/core/id"
)

// Repository provides storage access for count sessions.
// The reconciliation engine reads counts through its own store
// interface; the postgres repository implements both.
type Repository interface {
	// CreateSession persists a session and all of its entries.
	CreateSession(ctx context.Context, session *Session, entries []*Entry) error

	// GetSession returns a session with its entries.
	// Returns NOT_FOUND when the session does not exist.
	GetSession(ctx context.Context, sessionID id.ID) (*Session, []*Entry, error)

	// LatestSession returns the most recent session by date
	// (ties broken by id), or nil when none exist.
	LatestSession(ctx context.Context) (*Session, error)

	// ListSessions returns sessions in the date range, newest first.
	ListSessions(ctx context.Context, from, to time.Time) ([]*Session, error)
}

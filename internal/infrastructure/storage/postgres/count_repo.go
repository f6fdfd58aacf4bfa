package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/counting"
	"stocktally/internal/domain/recon"
)

const (
	countSessionsTable = "doc_count_sessions"
	countEntriesTable  = "doc_count_entries"
)

var (
	sessionColumns = []string{"id", "session_date", "notes", "created_at"}
	entryColumns   = []string{"id", "session_id", "item_id", "counted_quantity", "created_at"}
)

// Compile-time interface checks.
var (
	_ counting.Repository = (*CountRepo)(nil)
	_ recon.CountStore    = (*CountRepo)(nil)
)

// CountRepo is the PostgreSQL store for count sessions and entries.
// Count entry ids are creation-ordered (UUIDv7), so "latest" queries
// order by (session_date DESC, id DESC) and same-date ties resolve to
// the most recently recorded entry.
type CountRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewCountRepo creates a new count repository.
func NewCountRepo(txManager *TxManager) *CountRepo {
	return &CountRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateSession persists a session and all of its entries.
func (r *CountRepo) CreateSession(ctx context.Context, session *counting.Session, entries []*counting.Entry) error {
	q := r.builder.Insert(countSessionsTable).
		Columns(sessionColumns...).
		Values(session.ID, session.Date, session.Notes, session.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	eq := r.builder.Insert(countEntriesTable).Columns(entryColumns...)
	for _, e := range entries {
		eq = eq.Values(e.ID, e.SessionID, e.ItemID, e.Quantity, e.CreatedAt)
	}
	sql, args, err = eq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// GetSession returns a session with its entries.
func (r *CountRepo) GetSession(ctx context.Context, sessionID id.ID) (*counting.Session, []*counting.Entry, error) {
	q := r.builder.Select(sessionColumns...).
		From(countSessionsTable).
		Where(squirrel.Eq{"id": sessionID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}

	var session counting.Session
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &session, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperror.NewNotFound("count session", sessionID)
		}
		return nil, nil, fmt.Errorf("select session: %w", err)
	}

	eq := r.builder.Select(entryColumns...).
		From(countEntriesTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at")

	sql, args, err = eq.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*counting.Entry
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, nil, fmt.Errorf("select entries: %w", err)
	}
	return &session, entries, nil
}

// LatestSession returns the most recent session, or nil when none
// exist.
func (r *CountRepo) LatestSession(ctx context.Context) (*counting.Session, error) {
	q := r.builder.Select(sessionColumns...).
		From(countSessionsTable).
		OrderBy("session_date DESC", "id DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var session counting.Session
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &session, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest session: %w", err)
	}
	return &session, nil
}

// ListSessions returns sessions in the date range, newest first.
func (r *CountRepo) ListSessions(ctx context.Context, from, to time.Time) ([]*counting.Session, error) {
	q := r.builder.Select(sessionColumns...).
		From(countSessionsTable).
		Where(squirrel.GtOrEq{"session_date": from}).
		Where(squirrel.LtOrEq{"session_date": to}).
		OrderBy("session_date DESC", "id DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sessions []*counting.Session
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &sessions, sql, args...); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return sessions, nil
}

// --- recon.CountStore ---

func (r *CountRepo) countQuery() squirrel.SelectBuilder {
	return r.builder.Select(
		"e.id AS entry_id",
		"e.item_id",
		"s.session_date",
		"e.counted_quantity AS quantity",
	).From(countEntriesTable + " e").
		Join(countSessionsTable + " s ON s.id = e.session_id")
}

func (r *CountRepo) latestCount(ctx context.Context, q squirrel.SelectBuilder) (*recon.Count, error) {
	q = q.OrderBy("s.session_date DESC", "e.id DESC").Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var count recon.Count
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &count, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest count: %w", err)
	}
	return &count, nil
}

// LatestCountBefore implements recon.CountStore.
func (r *CountRepo) LatestCountBefore(ctx context.Context, itemID id.ID, date time.Time) (*recon.Count, error) {
	return r.latestCount(ctx, r.countQuery().
		Where(squirrel.Eq{"e.item_id": itemID}).
		Where(squirrel.Lt{"s.session_date": date}))
}

// LatestCountAtOrBefore implements recon.CountStore.
func (r *CountRepo) LatestCountAtOrBefore(ctx context.Context, itemID id.ID, date time.Time) (*recon.Count, error) {
	return r.latestCount(ctx, r.countQuery().
		Where(squirrel.Eq{"e.item_id": itemID}).
		Where(squirrel.LtOrEq{"s.session_date": date}))
}

// CountsInRange implements recon.CountStore: entries in the range,
// ordered by (session_date DESC, id DESC).
func (r *CountRepo) CountsInRange(ctx context.Context, filter recon.CountFilter) ([]recon.Count, error) {
	q := r.countQuery().
		Where(squirrel.GtOrEq{"s.session_date": filter.From}).
		Where(squirrel.LtOrEq{"s.session_date": filter.To}).
		OrderBy("s.session_date DESC", "e.id DESC")

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"e.item_id": *filter.ItemID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var counts []recon.Count
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &counts, sql, args...); err != nil {
		return nil, fmt.Errorf("select counts: %w", err)
	}
	return counts, nil
}

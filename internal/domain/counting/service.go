package counting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
	"stocktally/internal/core/tx"
	"stocktally/internal/domain/audit"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/pkg/logger"
)

// EntryInput is one count line as submitted by the caller.
// A nil Quantity means the item was not counted and is skipped.
type EntryInput struct {
	ItemID   id.ID
	Quantity *decimal.Decimal
}

// SessionInput describes a count session to record.
type SessionInput struct {
	Date    time.Time
	Notes   string
	Entries []EntryInput
}

// Service provides the count session workflow.
type Service struct {
	repo    Repository
	items   stockitem.Repository
	txm     tx.Manager
	auditor audit.Recorder
}

// NewService creates a new counting service.
func NewService(repo Repository, items stockitem.Repository, txm tx.Manager, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		items:   items,
		txm:     txm,
		auditor: auditor,
	}
}

// CreateSession records a count session and its entries atomically.
// Lines without a quantity are skipped; an item may appear at most
// once per session.
func (s *Service) CreateSession(ctx context.Context, input SessionInput) (*Session, []*Entry, error) {
	session := NewSession(input.Date, input.Notes)
	if err := session.Validate(ctx); err != nil {
		return nil, nil, err
	}

	seen := make(map[id.ID]struct{}, len(input.Entries))
	entries := make([]*Entry, 0, len(input.Entries))
	for i, in := range input.Entries {
		if in.Quantity == nil {
			continue
		}

		if _, dup := seen[in.ItemID]; dup {
			return nil, nil, apperror.NewDuplicate("count entry", "item", in.ItemID.String()).
				WithDetail("lineNo", i+1)
		}
		seen[in.ItemID] = struct{}{}

		if _, err := s.items.Get(ctx, in.ItemID); err != nil {
			return nil, nil, err
		}

		e := &Entry{
			BaseEntity: entity.NewBaseEntity(),
			SessionID:  session.ID,
			ItemID:     in.ItemID,
			Quantity:   *in.Quantity,
		}
		if err := e.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, nil, appErr.WithDetail("lineNo", i+1)
			}
			return nil, nil, err
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, nil, apperror.NewValidation("at least one counted entry is required").
			WithDetail("field", "entries")
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateSession(ctx, session, entries)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create count session: %w", err)
	}

	if s.auditor != nil {
		payload, marshalErr := json.Marshal(entries)
		if marshalErr != nil {
			logger.Warn(ctx, "audit payload marshal failed", "error", marshalErr)
		}
		auditErr := s.auditor.Record(ctx, audit.Entry{
			Action:      audit.ActionCount,
			EntityType:  "CountSession",
			EntityID:    session.ID,
			SessionID:   &session.ID,
			Description: fmt.Sprintf("count session on %s: %d items counted", session.Date.Format("2006-01-02"), len(entries)),
			Payload:     payload,
		})
		if auditErr != nil {
			logger.Warn(ctx, "audit record failed", "error", auditErr)
		}
	}

	logger.Info(ctx, "count session recorded",
		"session_id", session.ID,
		"session_date", session.Date.Format("2006-01-02"),
		"entries", len(entries),
	)

	return session, entries, nil
}

// GetSession returns a session with its entries.
func (s *Service) GetSession(ctx context.Context, sessionID id.ID) (*Session, []*Entry, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// LatestSession returns the most recent session, or NOT_FOUND when no
// counts have been recorded yet.
func (s *Service) LatestSession(ctx context.Context) (*Session, error) {
	session, err := s.repo.LatestSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	if session == nil {
		return nil, apperror.NewNotFound("count session", "latest")
	}
	return session, nil
}

// ListSessions returns sessions in the date range, newest first.
func (s *Service) ListSessions(ctx context.Context, from, to time.Time) ([]*Session, error) {
	return s.repo.ListSessions(ctx, from, to)
}

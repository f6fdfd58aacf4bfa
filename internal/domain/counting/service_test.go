package counting

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/apperror"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/catalogs/stockitem"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeItemRepo struct {
	known map[id.ID]*stockitem.StockItem
}

func (f *fakeItemRepo) Create(ctx context.Context, item *stockitem.StockItem) error { return nil }

func (f *fakeItemRepo) Get(ctx context.Context, itemID id.ID) (*stockitem.StockItem, error) {
	if item, ok := f.known[itemID]; ok {
		return item, nil
	}
	return nil, apperror.NewNotFound("stock item", itemID)
}

func (f *fakeItemRepo) FindByCode(ctx context.Context, code string) (*stockitem.StockItem, error) {
	return nil, apperror.NewNotFound("stock item", code)
}

func (f *fakeItemRepo) List(ctx context.Context, filter stockitem.ListFilter) ([]*stockitem.StockItem, error) {
	return nil, nil
}

type fakeCountRepo struct {
	sessions []*Session
	entries  []*Entry
}

func (f *fakeCountRepo) CreateSession(ctx context.Context, session *Session, entries []*Entry) error {
	f.sessions = append(f.sessions, session)
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeCountRepo) GetSession(ctx context.Context, sessionID id.ID) (*Session, []*Entry, error) {
	for _, s := range f.sessions {
		if s.ID == sessionID {
			var out []*Entry
			for _, e := range f.entries {
				if e.SessionID == sessionID {
					out = append(out, e)
				}
			}
			return s, out, nil
		}
	}
	return nil, nil, apperror.NewNotFound("count session", sessionID)
}

func (f *fakeCountRepo) LatestSession(ctx context.Context) (*Session, error) {
	if len(f.sessions) == 0 {
		return nil, nil
	}
	latest := f.sessions[0]
	for _, s := range f.sessions[1:] {
		if s.Date.After(latest.Date) {
			latest = s
		}
	}
	return latest, nil
}

func (f *fakeCountRepo) ListSessions(ctx context.Context, from, to time.Time) ([]*Session, error) {
	return f.sessions, nil
}

func newTestService(items ...*stockitem.StockItem) (*Service, *fakeCountRepo) {
	known := make(map[id.ID]*stockitem.StockItem)
	for _, it := range items {
		known[it.ID] = it
	}
	repo := &fakeCountRepo{}
	svc := NewService(repo, &fakeItemRepo{known: known}, fakeTxManager{}, nil)
	return svc, repo
}

func qty(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateSession_SkipsBlankQuantities(t *testing.T) {
	itemA := stockitem.NewStockItem("A001", "Widget", "pcs")
	itemB := stockitem.NewStockItem("B002", "Gadget", "pcs")
	svc, repo := newTestService(itemA, itemB)

	session, entries, err := svc.CreateSession(context.Background(), SessionInput{
		Date: time.Date(2025, time.January, 20, 14, 30, 0, 0, time.UTC),
		Entries: []EntryInput{
			{ItemID: itemA.ID, Quantity: qty("60")},
			{ItemID: itemB.ID, Quantity: nil}, // not counted
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ItemID != itemA.ID {
		t.Errorf("expected entry for item A, got %s", entries[0].ItemID)
	}
	if !session.Date.Equal(time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("session date not normalized to midnight: %v", session.Date)
	}
	if len(repo.entries) != 1 {
		t.Errorf("expected 1 persisted entry, got %d", len(repo.entries))
	}
}

func TestCreateSession_RejectsDuplicateItem(t *testing.T) {
	itemA := stockitem.NewStockItem("A001", "Widget", "pcs")
	svc, _ := newTestService(itemA)

	_, _, err := svc.CreateSession(context.Background(), SessionInput{
		Date: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Entries: []EntryInput{
			{ItemID: itemA.ID, Quantity: qty("60")},
			{ItemID: itemA.ID, Quantity: qty("55")},
		},
	})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeDuplicate {
		t.Errorf("expected DUPLICATE_ENTRY, got %v", err)
	}
}

func TestCreateSession_RejectsUnknownItem(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.CreateSession(context.Background(), SessionInput{
		Date: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Entries: []EntryInput{
			{ItemID: id.New(), Quantity: qty("10")},
		},
	})
	if !apperror.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateSession_RequiresCountedEntries(t *testing.T) {
	itemA := stockitem.NewStockItem("A001", "Widget", "pcs")
	svc, _ := newTestService(itemA)

	_, _, err := svc.CreateSession(context.Background(), SessionInput{
		Date: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Entries: []EntryInput{
			{ItemID: itemA.ID, Quantity: nil},
		},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateSession_RejectsNegativeQuantity(t *testing.T) {
	itemA := stockitem.NewStockItem("A001", "Widget", "pcs")
	svc, _ := newTestService(itemA)

	_, _, err := svc.CreateSession(context.Background(), SessionInput{
		Date: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Entries: []EntryInput{
			{ItemID: itemA.ID, Quantity: qty("-1")},
		},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

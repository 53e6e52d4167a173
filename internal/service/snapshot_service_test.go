package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/repository"
)

type fakeSnapshotStore struct {
	mu        sync.Mutex
	byHash    map[string]model.ResultSnapshot
	nextID    int64
	missOnce  bool  // first FindByHash misses even if the row exists
	createErr error // returned once, then cleared
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{byHash: make(map[string]model.ResultSnapshot)}
}

func (f *fakeSnapshotStore) FindByHash(_ context.Context, hash string) (*model.ResultSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missOnce {
		f.missOnce = false
		return nil, pgx.ErrNoRows
	}
	snap, ok := f.byHash[hash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := snap
	return &cp, nil
}

func (f *fakeSnapshotStore) Create(_ context.Context, snap *model.ResultSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if _, exists := f.byHash[snap.ResultsHash]; exists {
		return repository.ErrDuplicateHash
	}
	f.nextID++
	snap.ID = f.nextID
	snap.CreatedAt = time.Now()
	f.byHash[snap.ResultsHash] = *snap
	return nil
}

func (f *fakeSnapshotStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byHash)
}

func (f *fakeSnapshotStore) insertWinner(t *testing.T, summaries []model.AttemptSummary) int64 {
	t.Helper()
	hash, err := hashSummaries(summaries)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.byHash[hash] = model.ResultSnapshot{ID: f.nextID, Results: summaries, ResultsHash: hash}
	return f.nextID
}

func summariesFixture(score string) []model.AttemptSummary {
	return []model.AttemptSummary{
		{
			Score:            decimal.RequireFromString(score),
			Grade:            model.GradeA,
			TimeSpentSeconds: 300,
			CompletedAt:      time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC),
			ParticipantName:  "bob",
			TestTitle:        "Networking",
		},
	}
}

func TestFindOrCreateRejectsNilSummaries(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewSnapshotService(store)

	_, err := svc.FindOrCreate(context.Background(), nil)
	if !errors.Is(err, ErrNilResults) {
		t.Fatalf("expected ErrNilResults, got %v", err)
	}
	if store.count() != 0 {
		t.Fatal("nil input must not create a row")
	}
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewSnapshotService(store)

	first, err := svc.FindOrCreate(context.Background(), summariesFixture("9.00"))
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.FindOrCreate(context.Background(), summariesFixture("9.00"))
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("identical content resolved to different rows: %d vs %d", first.ID, second.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 row, got %d", store.count())
	}
}

func TestFindOrCreateDistinguishesContent(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewSnapshotService(store)

	first, err := svc.FindOrCreate(context.Background(), summariesFixture("9.00"))
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.FindOrCreate(context.Background(), summariesFixture("9.50"))
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("different content must not share a row")
	}
	if store.count() != 2 {
		t.Fatalf("expected 2 rows, got %d", store.count())
	}
}

func TestFindOrCreateAcceptsEmptyList(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewSnapshotService(store)

	snap, err := svc.FindOrCreate(context.Background(), []model.AttemptSummary{})
	if err != nil {
		t.Fatalf("empty list must be valid: %v", err)
	}
	if snap.ID == 0 {
		t.Fatal("expected a persisted row for the empty list")
	}
}

func TestFindOrCreateResolvesInsertRace(t *testing.T) {
	store := newFakeSnapshotStore()
	svc := NewSnapshotService(store)

	// Simulate another writer landing the row between our lookup and
	// insert: the store reports a duplicate and the winner is re-read.
	summaries := summariesFixture("6.00")
	store.missOnce = true
	store.createErr = repository.ErrDuplicateHash
	winnerID := store.insertWinner(t, summaries)

	snap, err := svc.FindOrCreate(context.Background(), summaries)
	if err != nil {
		t.Fatalf("race resolution failed: %v", err)
	}
	if snap.ID != winnerID {
		t.Fatalf("expected winner row %d, got %d", winnerID, snap.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 row after race, got %d", store.count())
	}
}

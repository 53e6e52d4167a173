package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/repository"
)

// ErrNilResults is returned when a nil summary list is handed to the
// snapshot store. An empty list is valid input.
var ErrNilResults = errors.New("results is null")

// SnapshotStore abstracts result snapshot persistence.
type SnapshotStore interface {
	FindByHash(ctx context.Context, hash string) (*model.ResultSnapshot, error)
	Create(ctx context.Context, snap *model.ResultSnapshot) error
}

// SnapshotService deduplicates attempt snapshots by content hash:
// semantically identical summary lists always resolve to the same stored
// row.
type SnapshotService struct {
	store SnapshotStore
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(store SnapshotStore) *SnapshotService {
	return &SnapshotService{store: store}
}

// FindOrCreate returns the stored snapshot for the given summaries, creating
// it if no row with the same content hash exists. The lookup-then-insert
// sequence is not race-free; the unique constraint on the hash column is the
// backstop, and a duplicate insert resolves to the winner row.
func (s *SnapshotService) FindOrCreate(ctx context.Context, summaries []model.AttemptSummary) (*model.ResultSnapshot, error) {
	if summaries == nil {
		return nil, ErrNilResults
	}

	hash, err := hashSummaries(summaries)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByHash(ctx, hash)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}

	snap := &model.ResultSnapshot{Results: summaries, ResultsHash: hash}
	if err := s.store.Create(ctx, snap); err != nil {
		if errors.Is(err, repository.ErrDuplicateHash) {
			// Lost the insert race; the winner row has identical content.
			return s.store.FindByHash(ctx, hash)
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

// hashSummaries computes the SHA-256 hex digest of the canonical JSON
// serialization of the summary list. AttemptSummary fixes its field order,
// so identical content always yields an identical hash string.
func hashSummaries(summaries []model.AttemptSummary) (string, error) {
	payload, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("serialize summaries: %w", err)
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:]), nil
}

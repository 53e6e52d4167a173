package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// ErrDuplicateHash signals that a snapshot with the same content hash was
// inserted concurrently; the caller should re-read the winner row.
var ErrDuplicateHash = errors.New("snapshot hash already exists")

// uniqueViolation is PostgreSQL SQLSTATE 23505.
const uniqueViolation = "23505"

// SnapshotRepository handles result snapshot data access. Snapshot rows are
// immutable once stored: there is no update path.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// FindByHash retrieves a snapshot by its content hash.
func (r *SnapshotRepository) FindByHash(ctx context.Context, hash string) (*model.ResultSnapshot, error) {
	snap := &model.ResultSnapshot{}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, results, results_hash, created_at
		 FROM result_snapshots
		 WHERE results_hash = $1`, hash,
	).Scan(&snap.ID, &raw, &snap.ResultsHash, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &snap.Results); err != nil {
		return nil, fmt.Errorf("decode snapshot results: %w", err)
	}
	return snap, nil
}

// Create inserts a new snapshot row. A unique-constraint violation on the
// hash column is surfaced as ErrDuplicateHash.
func (r *SnapshotRepository) Create(ctx context.Context, snap *model.ResultSnapshot) error {
	raw, err := json.Marshal(snap.Results)
	if err != nil {
		return fmt.Errorf("encode snapshot results: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO result_snapshots (results, results_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		raw, snap.ResultsHash,
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateHash
		}
		return err
	}
	return nil
}

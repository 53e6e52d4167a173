package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// TestRepository handles test data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// Create inserts a new test with a zero max score.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, description, author_id, score_max)
		 VALUES ($1, $2, $3, 0)
		 RETURNING id, score_max, created_at`,
		t.Title, t.Description, t.AuthorID,
	).Scan(&t.ID, &t.ScoreMax, &t.CreatedAt)
}

// GetByID retrieves a test by id.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, author_id, score_max, created_at
		 FROM tests
		 WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.AuthorID, &t.ScoreMax, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves all tests, newest first.
func (r *TestRepository) List(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, author_id, score_max, created_at
		 FROM tests
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.AuthorID, &t.ScoreMax, &t.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// Update rewrites a test's title and description.
func (r *TestRepository) Update(ctx context.Context, t *model.Test) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tests
		 SET title = $1, description = $2
		 WHERE id = $3`,
		t.Title, t.Description, t.ID)
	return err
}

// Delete removes a test; questions, options and results cascade.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	return err
}

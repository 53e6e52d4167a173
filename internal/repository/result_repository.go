package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// ResultRepository handles test result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a pending (unscored) result row.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO results (test_id, participant_id, time_spent_seconds, completed_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		res.TestID, res.ParticipantID, res.TimeSpentSeconds, res.CompletedAt,
	).Scan(&res.ID)
}

// GetByID retrieves a result by id.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, participant_id, score, grade, time_spent_seconds, completed_at
		 FROM results
		 WHERE id = $1`, id,
	).Scan(&res.ID, &res.TestID, &res.ParticipantID, &res.Score, &res.Grade, &res.TimeSpentSeconds, &res.CompletedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetScore writes the compiled score and grade of a result.
func (r *ResultRepository) SetScore(ctx context.Context, id uuid.UUID, score string, grade model.Grade) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE results
		 SET score = $1, grade = $2
		 WHERE id = $3`,
		score, grade, id)
	return err
}

// ListByParticipant retrieves all results of one participant, newest first.
func (r *ResultRepository) ListByParticipant(ctx context.Context, participantID int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, participant_id, score, grade, time_spent_seconds, completed_at
		 FROM results
		 WHERE participant_id = $1
		 ORDER BY completed_at DESC`, participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.TestID, &res.ParticipantID, &res.Score, &res.Grade, &res.TimeSpentSeconds, &res.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListCompletedAttempts joins all scored results with participant names and
// test titles. This is the report engine's Stage B query.
func (r *ResultRepository) ListCompletedAttempts(ctx context.Context) ([]model.AttemptSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT res.score, res.grade, res.time_spent_seconds, res.completed_at, u.username, t.title
		 FROM results res
		 JOIN users u ON res.participant_id = u.id
		 JOIN tests t ON res.test_id = t.id
		 WHERE res.score IS NOT NULL
		 ORDER BY res.completed_at ASC, res.id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.AttemptSummary
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.Score, &s.Grade, &s.TimeSpentSeconds, &s.CompletedAt, &s.ParticipantName, &s.TestTitle); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

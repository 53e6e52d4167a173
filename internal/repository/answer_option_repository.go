package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// AnswerOptionRepository handles answer option data access.
type AnswerOptionRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerOptionRepository creates a new AnswerOptionRepository.
func NewAnswerOptionRepository(pool *pgxpool.Pool) *AnswerOptionRepository {
	return &AnswerOptionRepository{pool: pool}
}

// ListByQuestion retrieves all options of one question.
func (r *AnswerOptionRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.AnswerOption, error) {
	return r.list(ctx,
		`SELECT id, question_id, text, is_correct
		 FROM answer_options
		 WHERE question_id = $1
		 ORDER BY id ASC`, questionID)
}

// ListByQuestions retrieves the options of many questions in one query,
// supplying the scoring engine's per-question option lists.
func (r *AnswerOptionRepository) ListByQuestions(ctx context.Context, questionIDs []uuid.UUID) ([]model.AnswerOption, error) {
	return r.list(ctx,
		`SELECT id, question_id, text, is_correct
		 FROM answer_options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id ASC, id ASC`, questionIDs)
}

func (r *AnswerOptionRepository) list(ctx context.Context, query string, arg any) ([]model.AnswerOption, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.AnswerOption
	for rows.Next() {
		var o model.AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

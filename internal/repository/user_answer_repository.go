package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// UserAnswerRepository handles persisted answer records.
type UserAnswerRepository struct {
	pool *pgxpool.Pool
}

// NewUserAnswerRepository creates a new UserAnswerRepository.
func NewUserAnswerRepository(pool *pgxpool.Pool) *UserAnswerRepository {
	return &UserAnswerRepository{pool: pool}
}

// CreateBatch bulk-inserts the answer records of one compiled result.
func (r *UserAnswerRepository) CreateBatch(ctx context.Context, answers []model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(answers))
	for i := range answers {
		rows = append(rows, []any{
			answers[i].ResultID,
			answers[i].QuestionID,
			answers[i].AnswerOptionID,
			answers[i].TextAnswer,
			answers[i].IsCorrect,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"user_answers"},
		[]string{"result_id", "question_id", "answer_option_id", "text_answer", "is_correct"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListByResult retrieves the answer records of one result.
func (r *UserAnswerRepository) ListByResult(ctx context.Context, resultID uuid.UUID) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, result_id, question_id, answer_option_id, text_answer, is_correct
		 FROM user_answers
		 WHERE result_id = $1
		 ORDER BY id ASC`, resultID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.ResultID, &a.QuestionID, &a.AnswerOptionID, &a.TextAnswer, &a.IsCorrect); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a question with its answer options and bumps the owning
// test's max score, all in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question, options []model.AnswerOption) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (test_id, text, type, point, allow_mistakes, correct_text_answers, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		q.TestID, q.Text, q.Type, q.Point, q.AllowMistakes, q.CorrectTextAnswers, q.OrderNum,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	for i := range options {
		options[i].QuestionID = q.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO answer_options (question_id, text, is_correct)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			options[i].QuestionID, options[i].Text, options[i].IsCorrect,
		).Scan(&options[i].ID)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE tests SET score_max = score_max + $1 WHERE id = $2`,
		q.Point, q.TestID)
	if err != nil {
		return fmt.Errorf("bump score_max: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a question by id.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, text, type, point, allow_mistakes, correct_text_answers, order_num
		 FROM questions
		 WHERE id = $1`, id,
	).Scan(&q.ID, &q.TestID, &q.Text, &q.Type, &q.Point, &q.AllowMistakes, &q.CorrectTextAnswers, &q.OrderNum)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByTest retrieves all questions of a test in display order.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, text, type, point, allow_mistakes, correct_text_answers, order_num
		 FROM questions
		 WHERE test_id = $1
		 ORDER BY order_num ASC, id ASC`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.Type, &q.Point, &q.AllowMistakes, &q.CorrectTextAnswers, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Delete removes a question and subtracts its point from the owning test's
// max score in one transaction. Options cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var testID uuid.UUID
	var point string
	err = tx.QueryRow(ctx,
		`DELETE FROM questions WHERE id = $1 RETURNING test_id, point`, id,
	).Scan(&testID, &point)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE tests SET score_max = score_max - $1 WHERE id = $2`,
		point, testID)
	if err != nil {
		return fmt.Errorf("lower score_max: %w", err)
	}

	return tx.Commit(ctx)
}

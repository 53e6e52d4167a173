package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/scoring"
)

// Result service errors.
var (
	ErrTestNotFound   = errors.New("test not found")
	ErrResultNotFound = errors.New("result not found")
)

// ResultStore abstracts result persistence.
type ResultStore interface {
	Create(ctx context.Context, res *model.Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	SetScore(ctx context.Context, id uuid.UUID, score string, grade model.Grade) error
	ListByParticipant(ctx context.Context, participantID int) ([]model.Result, error)
}

// UserAnswerStore persists answer records of compiled results.
type UserAnswerStore interface {
	CreateBatch(ctx context.Context, answers []model.UserAnswer) error
}

// TestReader supplies test metadata to the submission flow.
type TestReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
}

// QuestionReader supplies a test's questions.
type QuestionReader interface {
	ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error)
}

// AnswerOptionReader supplies per-question option lists.
type AnswerOptionReader interface {
	ListByQuestions(ctx context.Context, questionIDs []uuid.UUID) ([]model.AnswerOption, error)
}

// ResultService orchestrates the submission flow: it creates a pending
// result, assembles the scoring engine's inputs, runs it, and persists the
// scored result with its answer records and grade.
type ResultService struct {
	results   ResultStore
	answers   UserAnswerStore
	tests     TestReader
	questions QuestionReader
	options   AnswerOptionReader
	log       zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(
	results ResultStore,
	answers UserAnswerStore,
	tests TestReader,
	questions QuestionReader,
	options AnswerOptionReader,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		results:   results,
		answers:   answers,
		tests:     tests,
		questions: questions,
		options:   options,
		log:       log.With().Str("component", "result_service").Logger(),
	}
}

// Initiate creates a pending result row for a participant's finished run.
func (s *ResultService) Initiate(ctx context.Context, testID uuid.UUID, participantID int, timeSpentSeconds int64) (uuid.UUID, error) {
	if _, err := s.tests.GetByID(ctx, testID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrTestNotFound
		}
		return uuid.Nil, fmt.Errorf("get test: %w", err)
	}

	res := &model.Result{
		TestID:           testID,
		ParticipantID:    participantID,
		TimeSpentSeconds: timeSpentSeconds,
		CompletedAt:      time.Now(),
	}
	if err := s.results.Create(ctx, res); err != nil {
		return uuid.Nil, fmt.Errorf("create result: %w", err)
	}
	return res.ID, nil
}

// Compile grades a pending result. It loads the test's questions and
// options, runs the scoring engine, bulk-persists the answer records and
// writes the total score with its grade. Scoring failures abort before
// anything is persisted.
func (s *ResultService) Compile(ctx context.Context, resultID uuid.UUID, submitted map[uuid.UUID]scoring.SubmittedAnswer) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	test, err := s.tests.GetByID(ctx, res.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	questions, err := s.questions.ListByTest(ctx, res.TestID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questionIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}

	options, err := s.options.ListByQuestions(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	optionsByQuestion := make(map[uuid.UUID][]model.AnswerOption, len(questions))
	for _, o := range options {
		optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], o)
	}

	outcome, err := scoring.Score(questions, submitted, optionsByQuestion)
	if err != nil {
		return nil, fmt.Errorf("score submission: %w", err)
	}

	for i := range outcome.Answers {
		outcome.Answers[i].ResultID = res.ID
	}
	if err := s.answers.CreateBatch(ctx, outcome.Answers); err != nil {
		return nil, fmt.Errorf("persist answers: %w", err)
	}

	grade := model.CalculateGrade(outcome.Total, test.ScoreMax)
	if err := s.results.SetScore(ctx, res.ID, outcome.Total.StringFixed(2), grade); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}

	total := outcome.Total
	res.Score = &total
	res.Grade = &grade

	s.log.Debug().
		Str("result_id", res.ID.String()).
		Str("score", total.StringFixed(2)).
		Str("grade", string(grade)).
		Msg("result compiled")

	return res, nil
}

// ListByParticipant returns a participant's results.
func (s *ResultService) ListByParticipant(ctx context.Context, participantID int) ([]model.Result, error) {
	return s.results.ListByParticipant(ctx, participantID)
}

// GetByID returns one result.
func (s *ResultService) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/repository"
)

// ErrNotTestAuthor is returned when a user modifies a test they do not own.
// Test service errors.
var (
	ErrNotTestAuthor    = errors.New("not the test author")
	ErrInvalidPoint     = errors.New("invalid point value")
	ErrQuestionNotFound = errors.New("question not found")
)

// TakeQuestion is a question as shown to a participant: answer keys and
// option correctness are stripped.
type TakeQuestion struct {
	ID       uuid.UUID          `json:"id"`
	Text     string             `json:"text"`
	Type     model.QuestionType `json:"type"`
	Point    decimal.Decimal    `json:"point"`
	OrderNum int                `json:"order_num"`
	Options  []TakeOption       `json:"options,omitempty"`
}

// TakeOption is an answer option as shown to a participant.
type TakeOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// TestService handles test and question authoring.
type TestService struct {
	tests     *repository.TestRepository
	questions *repository.QuestionRepository
	options   *repository.AnswerOptionRepository
	log       zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	tests *repository.TestRepository,
	questions *repository.QuestionRepository,
	options *repository.AnswerOptionRepository,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		tests:     tests,
		questions: questions,
		options:   options,
		log:       log.With().Str("component", "test_service").Logger(),
	}
}

// Create inserts a new test owned by authorID.
func (s *TestService) Create(ctx context.Context, authorID int, req model.CreateTestRequest) (*model.Test, error) {
	t := &model.Test{
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    authorID,
	}
	if err := s.tests.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	return t, nil
}

// Get retrieves one test.
func (s *TestService) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return t, nil
}

// List retrieves all tests.
func (s *TestService) List(ctx context.Context) ([]model.Test, error) {
	return s.tests.List(ctx)
}

// Update rewrites a test's metadata after an ownership check.
func (s *TestService) Update(ctx context.Context, id uuid.UUID, authorID int, req model.UpdateTestRequest) (*model.Test, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != authorID {
		return nil, ErrNotTestAuthor
	}

	t.Title = req.Title
	t.Description = req.Description
	if err := s.tests.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update test: %w", err)
	}
	return t, nil
}

// Delete removes a test after an ownership check.
func (s *TestService) Delete(ctx context.Context, id uuid.UUID, authorID int) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.AuthorID != authorID {
		return ErrNotTestAuthor
	}
	return s.tests.Delete(ctx, id)
}

// AddQuestion appends a question (with options for choice types) to a test
// after an ownership check.
func (s *TestService) AddQuestion(ctx context.Context, testID uuid.UUID, authorID int, req model.AddQuestionRequest) (*model.Question, error) {
	t, err := s.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != authorID {
		return nil, ErrNotTestAuthor
	}

	point, err := decimal.NewFromString(req.Point)
	if err != nil || point.IsNegative() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPoint, req.Point)
	}

	q := &model.Question{
		TestID:             testID,
		Text:               req.Text,
		Type:               model.QuestionType(req.Type),
		Point:              point.Round(2),
		AllowMistakes:      req.AllowMistakes,
		CorrectTextAnswers: req.CorrectTextAnswers,
		OrderNum:           req.OrderNum,
	}

	options := make([]model.AnswerOption, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, model.AnswerOption{Text: o.Text, IsCorrect: o.IsCorrect})
	}

	if err := s.questions.Create(ctx, q, options); err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}
	return q, nil
}

// ListQuestions returns a test's questions with options, answer keys
// included. Author-facing.
func (s *TestService) ListQuestions(ctx context.Context, testID uuid.UUID) ([]model.Question, map[uuid.UUID][]model.AnswerOption, error) {
	questions, err := s.questions.ListByTest(ctx, testID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	options, err := s.options.ListByQuestions(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("list options: %w", err)
	}

	byQuestion := make(map[uuid.UUID][]model.AnswerOption, len(questions))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	return questions, byQuestion, nil
}

// DeleteQuestion removes a question after an ownership check on its test.
func (s *TestService) DeleteQuestion(ctx context.Context, questionID uuid.UUID, authorID int) error {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	t, err := s.Get(ctx, q.TestID)
	if err != nil {
		return err
	}
	if t.AuthorID != authorID {
		return ErrNotTestAuthor
	}
	return s.questions.Delete(ctx, questionID)
}

// GetForTaking returns a test's questions stripped of answer keys, the form
// served to a participant about to take the test.
func (s *TestService) GetForTaking(ctx context.Context, testID uuid.UUID) (*model.Test, []TakeQuestion, error) {
	t, err := s.Get(ctx, testID)
	if err != nil {
		return nil, nil, err
	}

	questions, byQuestion, err := s.ListQuestions(ctx, testID)
	if err != nil {
		return nil, nil, err
	}

	view := make([]TakeQuestion, 0, len(questions))
	for _, q := range questions {
		tq := TakeQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Point:    q.Point,
			OrderNum: q.OrderNum,
		}
		for _, o := range byQuestion[q.ID] {
			tq.Options = append(tq.Options, TakeOption{ID: o.ID, Text: o.Text})
		}
		view = append(view, tq)
	}
	return t, view, nil
}

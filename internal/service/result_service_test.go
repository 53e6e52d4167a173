package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/scoring"
)

type fakeResultStore struct {
	results map[uuid.UUID]model.Result
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{results: make(map[uuid.UUID]model.Result)}
}

func (f *fakeResultStore) Create(_ context.Context, res *model.Result) error {
	res.ID = uuid.New()
	f.results[res.ID] = *res
	return nil
}

func (f *fakeResultStore) GetByID(_ context.Context, id uuid.UUID) (*model.Result, error) {
	res, ok := f.results[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := res
	return &cp, nil
}

func (f *fakeResultStore) SetScore(_ context.Context, id uuid.UUID, score string, grade model.Grade) error {
	res, ok := f.results[id]
	if !ok {
		return pgx.ErrNoRows
	}
	parsed, err := decimal.NewFromString(score)
	if err != nil {
		return err
	}
	res.Score = &parsed
	res.Grade = &grade
	f.results[id] = res
	return nil
}

func (f *fakeResultStore) ListByParticipant(_ context.Context, participantID int) ([]model.Result, error) {
	var out []model.Result
	for _, res := range f.results {
		if res.ParticipantID == participantID {
			out = append(out, res)
		}
	}
	return out, nil
}

type fakeUserAnswerStore struct {
	answers []model.UserAnswer
}

func (f *fakeUserAnswerStore) CreateBatch(_ context.Context, answers []model.UserAnswer) error {
	f.answers = append(f.answers, answers...)
	return nil
}

type fakeTestReader struct {
	tests map[uuid.UUID]model.Test
}

func (f *fakeTestReader) GetByID(_ context.Context, id uuid.UUID) (*model.Test, error) {
	tst, ok := f.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := tst
	return &cp, nil
}

type fakeQuestionReader struct {
	questions []model.Question
}

func (f *fakeQuestionReader) ListByTest(_ context.Context, testID uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeAnswerOptionReader struct {
	options []model.AnswerOption
}

func (f *fakeAnswerOptionReader) ListByQuestions(_ context.Context, questionIDs []uuid.UUID) ([]model.AnswerOption, error) {
	wanted := make(map[uuid.UUID]bool, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = true
	}
	var out []model.AnswerOption
	for _, o := range f.options {
		if wanted[o.QuestionID] {
			out = append(out, o)
		}
	}
	return out, nil
}

// submissionFixture wires up a one-test, two-question world: a single
// choice question worth 6 and an open text question worth 4.
type submissionFixture struct {
	svc        *ResultService
	store      *fakeResultStore
	answers    *fakeUserAnswerStore
	testID     uuid.UUID
	choiceQID  uuid.UUID
	rightOptID uuid.UUID
	wrongOptID uuid.UUID
	textQID    uuid.UUID
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	testID := uuid.New()
	choiceQID := uuid.New()
	textQID := uuid.New()
	rightOptID := uuid.New()
	wrongOptID := uuid.New()

	tests := &fakeTestReader{tests: map[uuid.UUID]model.Test{
		testID: {ID: testID, Title: "Go basics", ScoreMax: decimal.RequireFromString("10")},
	}}
	questions := &fakeQuestionReader{questions: []model.Question{
		{
			ID:     choiceQID,
			TestID: testID,
			Type:   model.QuestionTypeSingleChoice,
			Point:  decimal.RequireFromString("6"),
		},
		{
			ID:                 textQID,
			TestID:             testID,
			Type:               model.QuestionTypeOpenText,
			Point:              decimal.RequireFromString("4"),
			CorrectTextAnswers: []string{"goroutine"},
		},
	}}
	options := &fakeAnswerOptionReader{options: []model.AnswerOption{
		{ID: rightOptID, QuestionID: choiceQID, Text: "right", IsCorrect: true},
		{ID: wrongOptID, QuestionID: choiceQID, Text: "wrong", IsCorrect: false},
	}}

	store := newFakeResultStore()
	answers := &fakeUserAnswerStore{}
	return &submissionFixture{
		svc:        NewResultService(store, answers, tests, questions, options, zerolog.Nop()),
		store:      store,
		answers:    answers,
		testID:     testID,
		choiceQID:  choiceQID,
		rightOptID: rightOptID,
		wrongOptID: wrongOptID,
		textQID:    textQID,
	}
}

func TestInitiateUnknownTest(t *testing.T) {
	fx := newSubmissionFixture(t)

	_, err := fx.svc.Initiate(context.Background(), uuid.New(), 1, 60)
	if !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
	if len(fx.store.results) != 0 {
		t.Fatal("no result row may be created for an unknown test")
	}
}

func TestCompileFullCredit(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	resultID, err := fx.svc.Initiate(ctx, fx.testID, 7, 90)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	res, err := fx.svc.Compile(ctx, resultID, map[uuid.UUID]scoring.SubmittedAnswer{
		fx.choiceQID: {SelectedOptionIDs: []uuid.UUID{fx.rightOptID}},
		fx.textQID:   {Text: "Goroutine"},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	if got := res.Score.StringFixed(2); got != "10.00" {
		t.Fatalf("score = %s, want 10.00", got)
	}
	if *res.Grade != model.GradeA {
		t.Fatalf("grade = %s, want A", *res.Grade)
	}
	if len(fx.answers.answers) != 2 {
		t.Fatalf("expected 2 answer records, got %d", len(fx.answers.answers))
	}
	for _, ans := range fx.answers.answers {
		if ans.ResultID != resultID {
			t.Fatalf("answer record not stamped with result id: got %s", ans.ResultID)
		}
	}

	stored, _ := fx.store.GetByID(ctx, resultID)
	if stored.Score == nil || stored.Score.StringFixed(2) != "10.00" {
		t.Fatalf("stored score = %v, want 10.00", stored.Score)
	}
}

func TestCompileGradeBuckets(t *testing.T) {
	cases := []struct {
		name        string
		pickCorrect bool
		text        string
		score       string
		grade       model.Grade
	}{
		{name: "full marks", pickCorrect: true, text: "goroutine", score: "10.00", grade: model.GradeA},
		{name: "choice only reaches C", pickCorrect: true, text: "channel", score: "6.00", grade: model.GradeC},
		{name: "text only stays below passing", pickCorrect: false, text: "goroutine", score: "4.00", grade: model.GradeF},
		{name: "everything wrong scores zero", pickCorrect: false, text: "channel", score: "0.00", grade: model.GradeF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newSubmissionFixture(t)
			ctx := context.Background()
			resultID, err := fx.svc.Initiate(ctx, fx.testID, 1, 30)
			if err != nil {
				t.Fatalf("initiate failed: %v", err)
			}

			picked := fx.wrongOptID
			if tc.pickCorrect {
				picked = fx.rightOptID
			}
			submitted := map[uuid.UUID]scoring.SubmittedAnswer{
				fx.choiceQID: {SelectedOptionIDs: []uuid.UUID{picked}},
				fx.textQID:   {Text: tc.text},
			}
			res, err := fx.svc.Compile(ctx, resultID, submitted)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if got := res.Score.StringFixed(2); got != tc.score {
				t.Fatalf("score = %s, want %s", got, tc.score)
			}
			if *res.Grade != tc.grade {
				t.Fatalf("grade = %s, want %s", *res.Grade, tc.grade)
			}
		})
	}
}

func TestCompileUnknownOptionAborts(t *testing.T) {
	fx := newSubmissionFixture(t)
	ctx := context.Background()

	resultID, err := fx.svc.Initiate(ctx, fx.testID, 2, 45)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	_, err = fx.svc.Compile(ctx, resultID, map[uuid.UUID]scoring.SubmittedAnswer{
		fx.choiceQID: {SelectedOptionIDs: []uuid.UUID{uuid.New()}},
	})
	if !errors.Is(err, scoring.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if len(fx.answers.answers) != 0 {
		t.Fatalf("no answer records may be persisted on abort, got %d", len(fx.answers.answers))
	}
	stored, _ := fx.store.GetByID(ctx, resultID)
	if stored.Score != nil {
		t.Fatal("no score may be persisted on abort")
	}
}

func TestCompileUnknownResult(t *testing.T) {
	fx := newSubmissionFixture(t)

	_, err := fx.svc.Compile(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

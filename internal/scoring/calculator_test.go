package scoring

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testovik/testovik-backend/internal/model"
)

var (
	qID  = uuid.New()
	optA = uuid.New()
	optB = uuid.New()
	optC = uuid.New()
)

func choiceQuestion(t model.QuestionType, point string, allowMistakes bool) model.Question {
	return model.Question{
		ID:            qID,
		Type:          t,
		Point:         decimal.RequireFromString(point),
		AllowMistakes: allowMistakes,
	}
}

func options(correct ...uuid.UUID) []model.AnswerOption {
	correctSet := make(map[uuid.UUID]bool)
	for _, id := range correct {
		correctSet[id] = true
	}
	all := []uuid.UUID{optA, optB, optC}
	opts := make([]model.AnswerOption, 0, len(all))
	for _, id := range all {
		opts = append(opts, model.AnswerOption{ID: id, QuestionID: qID, IsCorrect: correctSet[id]})
	}
	return opts
}

func TestScoreChoiceQuestions(t *testing.T) {
	tests := []struct {
		name        string
		question    model.Question
		options     []model.AnswerOption
		selected    []uuid.UUID
		wantScore   string
		wantRecords int
		wantCorrect []bool
	}{
		{
			name:        "single choice full credit",
			question:    choiceQuestion(model.QuestionTypeSingleChoice, "5.00", false),
			options:     options(optA),
			selected:    []uuid.UUID{optA},
			wantScore:   "5.00",
			wantRecords: 1,
			wantCorrect: []bool{true},
		},
		{
			name:        "single choice wrong option zero credit",
			question:    choiceQuestion(model.QuestionTypeSingleChoice, "5.00", false),
			options:     options(optA),
			selected:    []uuid.UUID{optB},
			wantScore:   "0",
			wantRecords: 1,
			wantCorrect: []bool{false},
		},
		{
			name:        "multiple choice exact match",
			question:    choiceQuestion(model.QuestionTypeMultipleChoice, "4.00", false),
			options:     options(optA, optB),
			selected:    []uuid.UUID{optB, optA},
			wantScore:   "4.00",
			wantRecords: 2,
			wantCorrect: []bool{true, true},
		},
		{
			name:        "partial credit one error over two correct",
			question:    choiceQuestion(model.QuestionTypeMultipleChoice, "10.00", true),
			options:     options(optA, optB),
			selected:    []uuid.UUID{optA, optB, optC},
			wantScore:   "5.00",
			wantRecords: 3,
			wantCorrect: []bool{true, true, false},
		},
		{
			name:        "mistakes not allowed yields zero",
			question:    choiceQuestion(model.QuestionTypeMultipleChoice, "10.00", false),
			options:     options(optA, optB),
			selected:    []uuid.UUID{optA},
			wantScore:   "0",
			wantRecords: 1,
			wantCorrect: []bool{true},
		},
		{
			name:        "empty selection never earns partial credit",
			question:    choiceQuestion(model.QuestionTypeMultipleChoice, "10.00", true),
			options:     options(optA, optB),
			selected:    nil,
			wantScore:   "0",
			wantRecords: 0,
		},
		{
			name:        "partial credit floored at zero",
			question:    choiceQuestion(model.QuestionTypeMultipleChoice, "6.00", true),
			options:     options(optA),
			selected:    []uuid.UUID{optB, optC},
			wantScore:   "0",
			wantRecords: 2,
			wantCorrect: []bool{false, false},
		},
		{
			name:        "duplicate selections collapse",
			question:    choiceQuestion(model.QuestionTypeSingleChoice, "3.00", false),
			options:     options(optA),
			selected:    []uuid.UUID{optA, optA},
			wantScore:   "3.00",
			wantRecords: 1,
			wantCorrect: []bool{true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := Score(
				[]model.Question{tc.question},
				map[uuid.UUID]SubmittedAnswer{qID: {SelectedOptionIDs: tc.selected}},
				map[uuid.UUID][]model.AnswerOption{qID: tc.options},
			)
			if err != nil {
				t.Fatalf("score failed: %v", err)
			}
			if want := decimal.RequireFromString(tc.wantScore); !outcome.Total.Equal(want) {
				t.Fatalf("expected score %s, got %s", want, outcome.Total)
			}
			if len(outcome.Answers) != tc.wantRecords {
				t.Fatalf("expected %d answer records, got %d", tc.wantRecords, len(outcome.Answers))
			}
			for i, rec := range outcome.Answers {
				if rec.QuestionID != qID {
					t.Fatalf("record %d bound to wrong question: %s", i, rec.QuestionID)
				}
				if rec.AnswerOptionID == nil {
					t.Fatalf("record %d missing option id", i)
				}
				if rec.IsCorrect != tc.wantCorrect[i] {
					t.Fatalf("record %d correctness = %v, want %v", i, rec.IsCorrect, tc.wantCorrect[i])
				}
			}
		})
	}
}

func TestScoreOpenTextQuestions(t *testing.T) {
	question := model.Question{
		ID:                 qID,
		Type:               model.QuestionTypeOpenText,
		Point:              decimal.RequireFromString("2.50"),
		CorrectTextAnswers: []string{"правильный ответ", "Correct Answer"},
	}

	tests := []struct {
		name        string
		text        string
		wantScore   string
		wantCorrect bool
	}{
		{name: "exact match", text: "правильный ответ", wantScore: "2.50", wantCorrect: true},
		{name: "case and whitespace insensitive", text: "  Правильный Ответ ", wantScore: "2.50", wantCorrect: true},
		{name: "second key matches", text: "correct answer", wantScore: "2.50", wantCorrect: true},
		{name: "wrong answer", text: "неправильный", wantScore: "0", wantCorrect: false},
		{name: "unanswered still records", text: "", wantScore: "0", wantCorrect: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := Score(
				[]model.Question{question},
				map[uuid.UUID]SubmittedAnswer{qID: {Text: tc.text}},
				nil,
			)
			if err != nil {
				t.Fatalf("score failed: %v", err)
			}
			if want := decimal.RequireFromString(tc.wantScore); !outcome.Total.Equal(want) {
				t.Fatalf("expected score %s, got %s", want, outcome.Total)
			}
			if len(outcome.Answers) != 1 {
				t.Fatalf("open text must emit exactly one record, got %d", len(outcome.Answers))
			}
			rec := outcome.Answers[0]
			if rec.TextAnswer == nil || *rec.TextAnswer != tc.text {
				t.Fatalf("record must carry the raw submitted text, got %v", rec.TextAnswer)
			}
			if rec.IsCorrect != tc.wantCorrect {
				t.Fatalf("correctness = %v, want %v", rec.IsCorrect, tc.wantCorrect)
			}
		})
	}
}

func TestScoreUnknownOptionAborts(t *testing.T) {
	question := choiceQuestion(model.QuestionTypeSingleChoice, "5.00", false)
	unknown := uuid.New()

	outcome, err := Score(
		[]model.Question{question},
		map[uuid.UUID]SubmittedAnswer{qID: {SelectedOptionIDs: []uuid.UUID{unknown}}},
		map[uuid.UUID][]model.AnswerOption{qID: options(optA)},
	)
	if !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if len(outcome.Answers) != 0 {
		t.Fatalf("no answer records may survive an aborted scoring, got %d", len(outcome.Answers))
	}
}

func TestScoreUnansweredQuestion(t *testing.T) {
	choice := choiceQuestion(model.QuestionTypeMultipleChoice, "4.00", true)
	openID := uuid.New()
	open := model.Question{
		ID:                 openID,
		Type:               model.QuestionTypeOpenText,
		Point:              decimal.RequireFromString("1.00"),
		CorrectTextAnswers: []string{"answer"},
	}

	// No submission entries at all: choice produces no records, open text
	// produces one incorrect record.
	outcome, err := Score(
		[]model.Question{choice, open},
		map[uuid.UUID]SubmittedAnswer{},
		map[uuid.UUID][]model.AnswerOption{qID: options(optA, optB)},
	)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if !outcome.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", outcome.Total)
	}
	if len(outcome.Answers) != 1 {
		t.Fatalf("expected exactly the open-text record, got %d records", len(outcome.Answers))
	}
	if outcome.Answers[0].QuestionID != openID || outcome.Answers[0].IsCorrect {
		t.Fatalf("unexpected record: %+v", outcome.Answers[0])
	}
}

func TestScoreSumsAcrossQuestions(t *testing.T) {
	q2ID := uuid.New()
	q2 := model.Question{
		ID:                 q2ID,
		Type:               model.QuestionTypeOpenText,
		Point:              decimal.RequireFromString("1.50"),
		CorrectTextAnswers: []string{"go"},
	}
	q1 := choiceQuestion(model.QuestionTypeSingleChoice, "2.00", false)

	outcome, err := Score(
		[]model.Question{q1, q2},
		map[uuid.UUID]SubmittedAnswer{
			qID:  {SelectedOptionIDs: []uuid.UUID{optA}},
			q2ID: {Text: "GO "},
		},
		map[uuid.UUID][]model.AnswerOption{qID: options(optA)},
	)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if want := decimal.RequireFromString("3.50"); !outcome.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, outcome.Total)
	}
	if len(outcome.Answers) != 2 {
		t.Fatalf("expected 2 records, got %d", len(outcome.Answers))
	}
}

// Package scoring grades a participant's submitted answers against a test's
// questions and answer keys. It is pure: no I/O, deterministic output for
// identical input, and nothing is emitted when grading fails.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testovik/testovik-backend/internal/model"
)

// ErrOptionNotFound is returned when a submitted selection references an
// answer option that does not belong to the question. The whole computation
// aborts; no partial answer records are returned.
var ErrOptionNotFound = errors.New("answer option not found")

// SubmittedAnswer is one question's submitted answer. A question with no
// entry in the submission map is treated as unanswered (empty text, no
// selections).
type SubmittedAnswer struct {
	Text              string
	SelectedOptionIDs []uuid.UUID
}

// Outcome is the result of grading one submission: the total awarded score
// and the answer records to persist. Records carry QuestionID and
// correctness; the caller stamps the owning result id before persisting.
type Outcome struct {
	Total   decimal.Decimal
	Answers []model.UserAnswer
}

// Score grades all questions of a submission. Choice questions award full,
// partial or zero credit from the symmetric difference between correct and
// selected option sets; open-text questions award full credit on a
// case- and whitespace-insensitive match against any correct answer.
func Score(
	questions []model.Question,
	submitted map[uuid.UUID]SubmittedAnswer,
	optionsByQuestion map[uuid.UUID][]model.AnswerOption,
) (Outcome, error) {
	outcome := Outcome{Total: decimal.Zero}

	for _, q := range questions {
		answer := submitted[q.ID] // zero value = unanswered

		var (
			score   decimal.Decimal
			records []model.UserAnswer
			err     error
		)
		switch {
		case q.Type.IsChoice():
			score, records, err = scoreChoiceQuestion(q, answer, optionsByQuestion[q.ID])
		case q.Type == model.QuestionTypeOpenText:
			score, records = scoreOpenTextQuestion(q, answer)
		default:
			continue
		}
		if err != nil {
			return Outcome{}, err
		}

		outcome.Total = outcome.Total.Add(score)
		outcome.Answers = append(outcome.Answers, records...)
	}

	return outcome, nil
}

// scoreChoiceQuestion grades a SINGLE_CHOICE or MULTIPLE_CHOICE question and
// builds one answer record per selected option.
func scoreChoiceQuestion(
	q model.Question,
	answer SubmittedAnswer,
	options []model.AnswerOption,
) (decimal.Decimal, []model.UserAnswer, error) {
	correctIDs := make(map[uuid.UUID]bool, len(options))
	knownIDs := make(map[uuid.UUID]bool, len(options))
	for _, opt := range options {
		knownIDs[opt.ID] = true
		if opt.IsCorrect {
			correctIDs[opt.ID] = true
		}
	}

	selected := dedupe(answer.SelectedOptionIDs)
	for _, id := range selected {
		if !knownIDs[id] {
			return decimal.Zero, nil, fmt.Errorf("%w: %s", ErrOptionNotFound, id)
		}
	}

	score := scoreChoiceSelection(q.Point, q.AllowMistakes, correctIDs, selected)

	records := make([]model.UserAnswer, 0, len(selected))
	for _, id := range selected {
		optionID := id
		records = append(records, model.UserAnswer{
			QuestionID:     q.ID,
			AnswerOptionID: &optionID,
			IsCorrect:      correctIDs[id],
		})
	}

	return score, records, nil
}

// scoreChoiceSelection applies the choice award rules: full credit when the
// selection matches the correct set exactly, partial credit when mistakes
// are allowed and anything was selected, zero otherwise.
func scoreChoiceSelection(
	point decimal.Decimal,
	allowMistakes bool,
	correctIDs map[uuid.UUID]bool,
	selected []uuid.UUID,
) decimal.Decimal {
	errorCount := countErrors(correctIDs, selected)

	if errorCount == 0 {
		return point
	}
	if allowMistakes && len(selected) > 0 && len(correctIDs) > 0 {
		return partialScore(point, errorCount, len(correctIDs))
	}
	return decimal.Zero
}

// partialScore computes point × (1 − errors/correctCount), dividing at 4
// decimal places half-up and rounding the result to 2, floored at zero:
// selecting more wrong options than there are correct ones cannot drive the
// award negative.
func partialScore(point decimal.Decimal, errorCount, correctCount int) decimal.Decimal {
	fraction := decimal.NewFromInt(int64(errorCount)).
		DivRound(decimal.NewFromInt(int64(correctCount)), 4)
	score := point.Mul(decimal.NewFromInt(1).Sub(fraction)).Round(2)

	if score.IsNegative() {
		return decimal.Zero
	}
	return score
}

// scoreOpenTextQuestion grades an OPEN_TEXT question. Exactly one answer
// record is produced, carrying the raw submitted text, whether it matched
// or not.
func scoreOpenTextQuestion(q model.Question, answer SubmittedAnswer) (decimal.Decimal, []model.UserAnswer) {
	normalized := normalizeText(answer.Text)

	correct := false
	for _, expected := range q.CorrectTextAnswers {
		if normalizeText(expected) == normalized {
			correct = true
			break
		}
	}

	text := answer.Text
	record := model.UserAnswer{
		QuestionID: q.ID,
		TextAnswer: &text,
		IsCorrect:  correct,
	}

	if correct {
		return q.Point, []model.UserAnswer{record}
	}
	return decimal.Zero, []model.UserAnswer{record}
}

// countErrors is the symmetric difference cardinality between the correct
// option set and the selection: missing-correct plus wrongly-selected.
func countErrors(correctIDs map[uuid.UUID]bool, selected []uuid.UUID) int {
	selectedSet := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	errs := 0
	for id := range correctIDs {
		if !selectedSet[id] {
			errs++
		}
	}
	for id := range selectedSet {
		if !correctIDs[id] {
			errs++
		}
	}
	return errs
}

// dedupe drops duplicate ids while preserving first-seen order, keeping
// answer record order deterministic.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

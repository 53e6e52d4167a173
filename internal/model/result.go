package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Grade buckets a final score into a discrete mark.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeF Grade = "F"
)

var (
	gradeACutoff = decimal.NewFromInt(90)
	gradeBCutoff = decimal.NewFromInt(80)
	gradeCCutoff = decimal.NewFromInt(60)
	hundred      = decimal.NewFromInt(100)
)

// CalculateGrade buckets score/scoreMax into A (>=90%), B (>=80%), C (>=60%)
// or F. A test with zero max score grades F.
func CalculateGrade(score, scoreMax decimal.Decimal) Grade {
	if scoreMax.IsZero() {
		return GradeF
	}
	percentage := score.DivRound(scoreMax, 4).Mul(hundred)

	switch {
	case percentage.GreaterThanOrEqual(gradeACutoff):
		return GradeA
	case percentage.GreaterThanOrEqual(gradeBCutoff):
		return GradeB
	case percentage.GreaterThanOrEqual(gradeCCutoff):
		return GradeC
	default:
		return GradeF
	}
}

// Result represents one participant's run through one test. Score and Grade
// stay nil until the submission has been compiled by the scoring engine.
type Result struct {
	ID               uuid.UUID        `json:"id"`
	TestID           uuid.UUID        `json:"test_id"`
	ParticipantID    int              `json:"participant_id"`
	Score            *decimal.Decimal `json:"score,omitempty"`
	Grade            *Grade           `json:"grade,omitempty"`
	TimeSpentSeconds int64            `json:"time_spent_seconds"`
	CompletedAt      time.Time        `json:"completed_at"`
}

// AttemptSummary is the snapshot form of one completed attempt. Field order
// is fixed: the report snapshot hash is computed over the canonical JSON
// serialization of a summary list.
type AttemptSummary struct {
	Score            decimal.Decimal `json:"score"`
	Grade            Grade           `json:"grade"`
	TimeSpentSeconds int64           `json:"time_spent_seconds"`
	CompletedAt      time.Time       `json:"completed_at"`
	ParticipantName  string          `json:"participant_name"`
	TestTitle        string          `json:"test_title"`
}

// SubmitResultRequest is the payload for submitting answers to a test.
type SubmitResultRequest struct {
	TestID           string                          `json:"test_id" binding:"required,uuid"`
	TimeSpentSeconds int64                           `json:"time_spent_seconds" binding:"min=0"`
	Answers          map[string]SubmittedAnswerInput `json:"answers"`
}

// SubmittedAnswerInput carries one question's submitted answer. Absent
// questions are treated as unanswered.
type SubmittedAnswerInput struct {
	Text              string   `json:"text" binding:"max=2000"`
	SelectedOptionIDs []string `json:"selected_option_ids" binding:"max=20,dive,uuid"`
}

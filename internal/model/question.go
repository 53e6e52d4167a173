package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestionType enumerates supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeOpenText       QuestionType = "OPEN_TEXT"
)

// IsChoice reports whether the question is answered by selecting options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultipleChoice
}

// Question represents a single test question. Point carries two fractional
// digits; AllowMistakes permits partial credit on choice questions.
type Question struct {
	ID                 uuid.UUID       `json:"id"`
	TestID             uuid.UUID       `json:"test_id"`
	Text               string          `json:"text"`
	Type               QuestionType    `json:"type"`
	Point              decimal.Decimal `json:"point"`
	AllowMistakes      bool            `json:"allow_mistakes"`
	CorrectTextAnswers []string        `json:"correct_text_answers,omitempty"`
	OrderNum           int             `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to a test.
type AddQuestionRequest struct {
	Text               string                   `json:"text" binding:"required,min=1,max=2000"`
	Type               string                   `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTIPLE_CHOICE OPEN_TEXT"`
	Point              string                   `json:"point" binding:"required"`
	AllowMistakes      bool                     `json:"allow_mistakes"`
	CorrectTextAnswers []string                 `json:"correct_text_answers" binding:"max=20,dive,max=500"`
	OrderNum           int                      `json:"order_num" binding:"min=0"`
	Options            []AddAnswerOptionRequest `json:"options" binding:"max=20,dive"`
}

package model

import "github.com/google/uuid"

// UserAnswer is one persisted answer record of a scored result: one row per
// selected option for choice questions, exactly one row for open-text
// questions.
type UserAnswer struct {
	ID             uuid.UUID  `json:"id"`
	ResultID       uuid.UUID  `json:"result_id"`
	QuestionID     uuid.UUID  `json:"question_id"`
	AnswerOptionID *uuid.UUID `json:"answer_option_id,omitempty"`
	TextAnswer     *string    `json:"text_answer,omitempty"`
	IsCorrect      bool       `json:"is_correct"`
}

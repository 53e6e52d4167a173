package model

import "github.com/google/uuid"

// AnswerOption represents one selectable option of a choice question.
type AnswerOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
}

// AddAnswerOptionRequest is the payload for one option inside AddQuestionRequest.
type AddAnswerOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

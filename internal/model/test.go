package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Test represents an authored test that participants can take.
type Test struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AuthorID    int             `json:"author_id"`
	ScoreMax    decimal.Decimal `json:"score_max"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateTestRequest is the payload for creating a test.
type CreateTestRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateTestRequest is the payload for updating a test's metadata.
type UpdateTestRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

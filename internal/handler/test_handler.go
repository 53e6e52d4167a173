package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/testovik/testovik-backend/internal/middleware"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/response"
	"github.com/testovik/testovik-backend/internal/service"
	"github.com/testovik/testovik-backend/internal/validator"
)

// TestHandler handles test and question authoring endpoints.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// Create godoc
// POST /api/v1/admin/tests
func (h *TestHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// Get godoc
// GET /api/v1/admin/tests/:id
func (h *TestHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	test, err := h.testService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// List godoc
// GET /api/v1/admin/tests
func (h *TestHandler) List(c *gin.Context) {
	tests, err := h.testService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// Update godoc
// PUT /api/v1/admin/tests/:id
func (h *TestHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Update(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		failTestMutation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Delete godoc
// DELETE /api/v1/admin/tests/:id
func (h *TestHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.testService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		failTestMutation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AddQuestion godoc
// POST /api/v1/admin/tests/:id/questions
func (h *TestHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.testService.AddQuestion(c.Request.Context(), testID, claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPoint) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		failTestMutation(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListQuestions godoc
// GET /api/v1/admin/tests/:id/questions
func (h *TestHandler) ListQuestions(c *gin.Context) {
	testID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	questions, optionsByQuestion, err := h.testService.ListQuestions(c.Request.Context(), testID)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	type questionView struct {
		model.Question
		Options []model.AnswerOption `json:"options,omitempty"`
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{Question: q, Options: optionsByQuestion[q.ID]})
	}

	response.Success(c, http.StatusOK, gin.H{"questions": views})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *TestHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.testService.DeleteQuestion(c.Request.Context(), questionID, claims.UserID); err != nil {
		failTestMutation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetForTaking godoc
// GET /api/v1/tests/:id
// Returns a test with its questions as shown to a participant: answer keys
// and option correctness flags are stripped.
func (h *TestHandler) GetForTaking(c *gin.Context) {
	testID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	test, questions, err := h.testService.GetForTaking(c.Request.Context(), testID)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"test":      test,
		"questions": questions,
	})
}

// ListAvailable godoc
// GET /api/v1/tests
func (h *TestHandler) ListAvailable(c *gin.Context) {
	tests, err := h.testService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func failTestMutation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotFound), errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotTestAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotTestAuthor)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

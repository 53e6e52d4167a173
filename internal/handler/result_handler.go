package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/testovik/testovik-backend/internal/middleware"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/response"
	"github.com/testovik/testovik-backend/internal/scoring"
	"github.com/testovik/testovik-backend/internal/service"
	"github.com/testovik/testovik-backend/internal/validator"
)

// ResultHandler handles submission and result endpoints.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// Submit godoc
// POST /api/v1/results
// Accepts a participant's finished run, scores it and returns the graded
// result. Submissions referencing unknown answer options are rejected whole.
func (h *ResultHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	testID, err := uuid.Parse(req.TestID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	submitted, ok := buildSubmission(c, req.Answers)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	resultID, err := h.resultService.Initiate(ctx, testID, claims.UserID, req.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	result, err := h.resultService.Compile(ctx, resultID, submitted)
	if err != nil {
		if errors.Is(err, scoring.ErrOptionNotFound) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownOption)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": result})
}

// Get godoc
// GET /api/v1/results/:id
// Participants may only read their own results; admins may read any.
func (h *ResultHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if result.ParticipantID != claims.UserID && claims.Role != model.RoleAdmin {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListMine godoc
// GET /api/v1/results
func (h *ResultHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListByParticipant(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// buildSubmission converts the wire payload into scoring engine input,
// parsing option id strings into UUIDs.
func buildSubmission(c *gin.Context, answers map[string]model.SubmittedAnswerInput) (map[uuid.UUID]scoring.SubmittedAnswer, bool) {
	submitted := make(map[uuid.UUID]scoring.SubmittedAnswer, len(answers))
	for rawQID, input := range answers {
		qid, err := uuid.Parse(rawQID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return nil, false
		}

		selected := make([]uuid.UUID, 0, len(input.SelectedOptionIDs))
		for _, rawOID := range input.SelectedOptionIDs {
			oid, err := uuid.Parse(rawOID)
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
				return nil, false
			}
			selected = append(selected, oid)
		}

		submitted[qid] = scoring.SubmittedAnswer{
			Text:              input.Text,
			SelectedOptionIDs: selected,
		}
	}
	return submitted, true
}

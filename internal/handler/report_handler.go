package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testovik/testovik-backend/internal/config"
	"github.com/testovik/testovik-backend/internal/response"
	"github.com/testovik/testovik-backend/internal/service"
)

// ReportHandler handles report endpoints.
type ReportHandler struct {
	reportService *service.ReportService
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, rdb *redis.Client, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		rdb:           rdb,
		log:           log.With().Str("component", "report_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/admin/reports
// Creates a report in CREATED state and enqueues it for background
// generation. Returns 202 immediately; generation progress is observed
// through GET.
func (h *ReportHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := h.reportService.CreateReport(ctx)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.rdb.RPush(ctx, config.WorkerKey.GenerateReportsQueue, strconv.FormatInt(id, 10)).Err(); err != nil {
		h.log.Error().Err(err).Int64("report_id", id).Msg("failed to enqueue report")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"report_id": id})
}

// Generate godoc
// POST /api/v1/admin/reports/:id/generate
// Runs generation for an existing report and waits for its terminal state.
func (h *ReportHandler) Generate(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}

	outcomeCh, err := h.reportService.GenerateAsync(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	outcome := <-outcomeCh
	if outcome.Err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrReportFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": outcome.Report})
}

// Get godoc
// GET /api/v1/admin/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// List godoc
// GET /api/v1/admin/reports
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

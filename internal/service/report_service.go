package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/testovik/testovik-backend/internal/model"
	"golang.org/x/sync/errgroup"
)

// Report service errors.
var (
	// ErrReportNotFound is returned synchronously when the report id does
	// not exist; no generation is started and no row is touched.
	ErrReportNotFound = errors.New("report not found")

	// ErrReportGeneration is the only error surfaced through the async
	// handle. The underlying cause is logged, never exposed to the caller.
	ErrReportGeneration = errors.New("report generation failed")
)

// UserDirectory supplies Stage A of report generation.
type UserDirectory interface {
	CountRegisteredUsers(ctx context.Context) (int64, error)
}

// AttemptDirectory supplies Stage B of report generation.
type AttemptDirectory interface {
	ListCompletedAttempts(ctx context.Context) ([]model.AttemptSummary, error)
}

// ReportStore abstracts report persistence.
type ReportStore interface {
	Create(ctx context.Context, rep *model.Report) error
	GetByID(ctx context.Context, id int64) (*model.Report, error)
	Update(ctx context.Context, rep *model.Report) error
	MarkError(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Report, error)
}

// SnapshotProvider deduplicates attempt summary snapshots.
type SnapshotProvider interface {
	FindOrCreate(ctx context.Context, summaries []model.AttemptSummary) (*model.ResultSnapshot, error)
}

// ReportOutcome is delivered on the handle returned by GenerateAsync.
// Exactly one of Report and Err is set.
type ReportOutcome struct {
	Report *model.Report
	Err    error
}

// ReportService builds aggregate usage reports: the registered-user count
// and a deduplicated snapshot of all completed attempts, gathered by two
// concurrent stages. A report loaded for generation always ends in a
// terminal status (FINISHED or ERROR), even under partial failure.
type ReportService struct {
	reports   ReportStore
	users     UserDirectory
	attempts  AttemptDirectory
	snapshots SnapshotProvider
	log       zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	reports ReportStore,
	users UserDirectory,
	attempts AttemptDirectory,
	snapshots SnapshotProvider,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		users:     users,
		attempts:  attempts,
		snapshots: snapshots,
		log:       log.With().Str("component", "report_service").Logger(),
	}
}

// CreateReport persists a new report in CREATED state and returns its id.
func (s *ReportService) CreateReport(ctx context.Context) (int64, error) {
	rep := &model.Report{}
	if err := s.reports.Create(ctx, rep); err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	return rep.ID, nil
}

// GetReport retrieves one report.
func (s *ReportService) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// ListReports retrieves all reports.
func (s *ReportService) ListReports(ctx context.Context) ([]model.Report, error) {
	return s.reports.List(ctx)
}

// GenerateAsync populates a report. The load check is synchronous: a missing
// id returns ErrReportNotFound before any concurrent work starts. On
// success it returns a handle that delivers exactly one ReportOutcome once
// the report has reached a terminal status.
func (s *ReportService) GenerateAsync(ctx context.Context, id int64) (<-chan ReportOutcome, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}

	out := make(chan ReportOutcome, 1)
	go s.generate(ctx, rep, out)
	return out, nil
}

// stage results are written to independent slots; the errgroup join barrier
// orders those writes before the reads below it.
type stageData struct {
	countUsers    int64
	usersMillis   int64
	summaries     []model.AttemptSummary
	resultsMillis int64
}

func (s *ReportService) generate(ctx context.Context, rep *model.Report, out chan<- ReportOutcome) {
	start := time.Now()

	var data stageData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stageStart := time.Now()
		count, err := s.users.CountRegisteredUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users stage: %w", err)
		}
		data.countUsers = count
		data.usersMillis = time.Since(stageStart).Milliseconds()
		return nil
	})

	g.Go(func() error {
		stageStart := time.Now()
		summaries, err := s.attempts.ListCompletedAttempts(gctx)
		if err != nil {
			return fmt.Errorf("list attempts stage: %w", err)
		}
		if summaries == nil {
			summaries = []model.AttemptSummary{}
		}
		data.summaries = summaries
		data.resultsMillis = time.Since(stageStart).Milliseconds()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.fail(rep.ID, err, out)
		return
	}

	snap, err := s.snapshots.FindOrCreate(ctx, data.summaries)
	if err != nil {
		s.fail(rep.ID, fmt.Errorf("snapshot: %w", err), out)
		return
	}

	now := time.Now()
	totalMillis := now.Sub(start).Milliseconds()

	rep.Status = model.ReportStatusFinished
	rep.CountUsers = &data.countUsers
	rep.SnapshotID = &snap.ID
	rep.TimeSpentUsersMillis = &data.usersMillis
	rep.TimeSpentResultsMillis = &data.resultsMillis
	rep.TimeSpentTotalMillis = &totalMillis
	rep.CompletedAt = &now

	if err := s.reports.Update(ctx, rep); err != nil {
		s.fail(rep.ID, fmt.Errorf("persist finished report: %w", err), out)
		return
	}

	s.log.Info().
		Int64("report_id", rep.ID).
		Int64("total_ms", totalMillis).
		Msg("report generated")

	out <- ReportOutcome{Report: rep}
}

// fail moves the report to ERROR and signals the caller with the generic
// generation error. The ERROR write is best-effort and uses a background
// context so caller cancellation cannot strand the report in CREATED; a
// failed write is logged, not propagated.
func (s *ReportService) fail(id int64, cause error, out chan<- ReportOutcome) {
	s.log.Error().Err(cause).Int64("report_id", id).Msg("report generation failed")

	if err := s.reports.MarkError(context.Background(), id); err != nil {
		s.log.Error().Err(err).Int64("report_id", id).Msg("failed to persist ERROR status")
	}

	out <- ReportOutcome{Err: ErrReportGeneration}
}

package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testovik/testovik-backend/internal/config"
	"github.com/testovik/testovik-backend/internal/service"
)

const (
	ReportPollTimeout = 1 * time.Second
)

// ReportGenerator starts report generation and returns a handle that
// settles once the report reaches a terminal state.
type ReportGenerator interface {
	GenerateAsync(ctx context.Context, id int64) (<-chan service.ReportOutcome, error)
}

// ReportWorker drains the report queue and drives each queued report to
// completion, one at a time.
type ReportWorker struct {
	generator ReportGenerator
	rdb       *redis.Client
	log       zerolog.Logger
}

func NewReportWorker(generator ReportGenerator, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		rdb:       rdb,
		log:       log.With().Str("component", "report_worker").Logger(),
	}
}

func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReportPollTimeout, config.WorkerKey.GenerateReportsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			id, err := strconv.ParseInt(item[1], 10, 64)
			if err != nil {
				w.log.Error().Str("payload", item[1]).Msg("Invalid report id payload")
				continue
			}

			w.process(ctx, id)
		}
	}
}

// process runs one report to its terminal state. Generation itself never
// leaves a loaded report non-terminal, so there is nothing to requeue: a
// failed report is already marked ERROR.
func (w *ReportWorker) process(ctx context.Context, id int64) {
	outcomeCh, err := w.generator.GenerateAsync(ctx, id)
	if err != nil {
		w.log.Error().Err(err).Int64("report_id", id).Msg("report generation rejected")
		return
	}

	select {
	case outcome := <-outcomeCh:
		if outcome.Err != nil {
			w.log.Error().Err(outcome.Err).Int64("report_id", id).Msg("report generation failed")
			return
		}
		w.log.Info().
			Int64("report_id", id).
			Str("status", string(outcome.Report.Status)).
			Msg("report generated")

	case <-ctx.Done():
		// Generation keeps running detached; its terminal write does not
		// depend on this context.
		w.log.Warn().Int64("report_id", id).Msg("shutdown while awaiting report")
	}
}

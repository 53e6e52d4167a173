package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testovik/testovik-backend/internal/model"
)

// ReportRepository handles report data access.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create inserts a new report in CREATED state.
func (r *ReportRepository) Create(ctx context.Context, rep *model.Report) error {
	rep.Status = model.ReportStatusCreated
	return r.pool.QueryRow(ctx,
		`INSERT INTO reports (status) VALUES ($1)
		 RETURNING id, created_at`,
		rep.Status,
	).Scan(&rep.ID, &rep.CreatedAt)
}

// GetByID retrieves a report by id.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*model.Report, error) {
	rep := &model.Report{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, count_users, snapshot_id,
		        time_spent_users_millis, time_spent_results_millis, time_spent_total_millis,
		        completed_at, created_at
		 FROM reports
		 WHERE id = $1`, id,
	).Scan(&rep.ID, &rep.Status, &rep.CountUsers, &rep.SnapshotID,
		&rep.TimeSpentUsersMillis, &rep.TimeSpentResultsMillis, &rep.TimeSpentTotalMillis,
		&rep.CompletedAt, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Update writes a report's terminal fields in a single statement so the
// status transition and its telemetry land atomically.
func (r *ReportRepository) Update(ctx context.Context, rep *model.Report) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reports
		 SET status = $1, count_users = $2, snapshot_id = $3,
		     time_spent_users_millis = $4, time_spent_results_millis = $5,
		     time_spent_total_millis = $6, completed_at = $7
		 WHERE id = $8`,
		rep.Status, rep.CountUsers, rep.SnapshotID,
		rep.TimeSpentUsersMillis, rep.TimeSpentResultsMillis,
		rep.TimeSpentTotalMillis, rep.CompletedAt, rep.ID)
	return err
}

// MarkError moves a report to the terminal ERROR state.
func (r *ReportRepository) MarkError(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reports SET status = $1 WHERE id = $2`,
		model.ReportStatusError, id)
	return err
}

// List retrieves all reports, newest first.
func (r *ReportRepository) List(ctx context.Context) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, status, count_users, snapshot_id,
		        time_spent_users_millis, time_spent_results_millis, time_spent_total_millis,
		        completed_at, created_at
		 FROM reports
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.Status, &rep.CountUsers, &rep.SnapshotID,
			&rep.TimeSpentUsersMillis, &rep.TimeSpentResultsMillis, &rep.TimeSpentTotalMillis,
			&rep.CompletedAt, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

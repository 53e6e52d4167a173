package model

import "time"

// ReportStatus enumerates report lifecycle states. CREATED is the only
// non-terminal state; generation moves a report to FINISHED or ERROR exactly
// once.
type ReportStatus string

const (
	ReportStatusCreated  ReportStatus = "CREATED"
	ReportStatusFinished ReportStatus = "FINISHED"
	ReportStatusError    ReportStatus = "ERROR"
)

// Report aggregates platform usage: the registered-user count and a
// reference to a deduplicated snapshot of completed attempts, plus timing
// telemetry for each generation stage.
type Report struct {
	ID                     int64        `json:"id"`
	Status                 ReportStatus `json:"status"`
	CountUsers             *int64       `json:"count_users,omitempty"`
	SnapshotID             *int64       `json:"snapshot_id,omitempty"`
	TimeSpentUsersMillis   *int64       `json:"time_spent_users_millis,omitempty"`
	TimeSpentResultsMillis *int64       `json:"time_spent_results_millis,omitempty"`
	TimeSpentTotalMillis   *int64       `json:"time_spent_total_millis,omitempty"`
	CompletedAt            *time.Time   `json:"completed_at,omitempty"`
	CreatedAt              time.Time    `json:"created_at"`
}

// ResultSnapshot is an immutable, content-addressed bundle of attempt
// summaries. ResultsHash is the SHA-256 hex of the canonical JSON
// serialization of Results; a unique constraint on the hash column
// deduplicates identical snapshots.
type ResultSnapshot struct {
	ID          int64            `json:"id"`
	Results     []AttemptSummary `json:"results"`
	ResultsHash string           `json:"results_hash"`
	CreatedAt   time.Time        `json:"created_at"`
}

package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ferrohaus/featsync/internal/infrastructure/influxdb"
)

// SQLiteRecorder persists pass outcomes to the reconcile_runs audit table.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder creates a recorder over an open SQLite connection
// with migrations applied.
func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db}
}

// RecordRun inserts one audit row for the pass.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, report *Report) error {
	readFailed := 0
	if report.ReadFailed {
		readFailed = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs
			(id, started_at, duration_ms, required_count, observed_count,
			 created_count, removed_count, failed_count, read_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.Format(time.RFC3339),
		report.Duration.Milliseconds(),
		report.RequiredCount,
		report.ObservedCount,
		len(report.Created),
		len(report.Removed),
		report.FailedCount(),
		readFailed,
	)
	if err != nil {
		return fmt.Errorf("inserting reconcile run: %w", err)
	}
	return nil
}

// InfluxRecorder publishes pass outcomes as time-series points.
type InfluxRecorder struct {
	client *influxdb.Client
}

// NewInfluxRecorder creates a recorder over a connected InfluxDB client.
func NewInfluxRecorder(client *influxdb.Client) *InfluxRecorder {
	return &InfluxRecorder{client: client}
}

// RecordRun writes one reconcile_pass point. The underlying write is
// batched and asynchronous, so this never blocks the pass.
func (r *InfluxRecorder) RecordRun(_ context.Context, report *Report) error {
	r.client.WritePassMetrics(
		report.RunID,
		report.RequiredCount,
		report.ObservedCount,
		len(report.Created),
		len(report.Removed),
		report.FailedCount(),
		report.Duration,
	)
	return nil
}

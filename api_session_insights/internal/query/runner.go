package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"frameworks/api_session_insights/internal/metrics"
	"frameworks/pkg/logging"
	"frameworks/pkg/models"
)

// Runner executes bucketed aggregate queries against ClickHouse
type Runner struct {
	db      *sql.DB
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewRunner creates a runner. m may be nil.
func NewRunner(db *sql.DB, logger logging.Logger, m *metrics.Metrics) *Runner {
	return &Runner{db: db, logger: logger, metrics: m}
}

// Fetch runs exactly one query on a connection held for the duration of the call.
// Rows come back ordered by bucket descending.
func (r *Runner) Fetch(ctx context.Context, kind Kind, p Params) ([]models.BucketRow, error) {
	query, args, err := Build(kind, p)
	if err != nil {
		return nil, err
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		r.observe("error")
		return nil, fmt.Errorf("failed to acquire clickhouse connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		r.observe("error")
		r.logger.WithFields(logging.Fields{
			"kind":       kind,
			"project_id": p.ProjectID,
			"error":      err,
		}).Error("Failed to query bucketed events")
		return nil, fmt.Errorf("failed to query %s buckets: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	v := variants[kind]
	var out []models.BucketRow
	for rows.Next() {
		row, err := scanRow(rows, v)
		if err != nil {
			r.observe("error")
			return nil, fmt.Errorf("failed to scan %s bucket: %w", kind, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		r.observe("error")
		return nil, fmt.Errorf("failed to read %s buckets: %w", kind, err)
	}

	r.observe("success")
	r.logger.WithFields(logging.Fields{
		"kind":       kind,
		"project_id": p.ProjectID,
		"time_step":  p.Step.String(),
		"rows":       len(out),
		"duration":   time.Since(start),
	}).Debug("Fetched bucketed events")

	return out, nil
}

func (r *Runner) observe(status string) {
	if r.metrics != nil {
		r.metrics.ClickHouseQueries.WithLabelValues(EventsTable, status).Inc()
	}
}

func scanRow(rows *sql.Rows, v variant) (models.BucketRow, error) {
	var (
		row     models.BucketRow
		dim     sql.NullString
		sources []string
	)
	values := make([]sql.NullFloat64, len(v.metrics))
	dest := []interface{}{&row.Bucket, &row.Sessions, &dim, &sources}
	for i := range values {
		dest = append(dest, &values[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return row, err
	}

	row.Bucket = row.Bucket.UTC()
	row.Dimension = dim.String
	row.Sources = sources
	for i, m := range v.metrics {
		if values[i].Valid {
			f := values[i].Float64
			m.set(&row, &f)
		}
	}
	return row, nil
}

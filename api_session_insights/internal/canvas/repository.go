package canvas

import (
	"context"
	"database/sql"
	"fmt"

	"frameworks/api_session_insights/internal/metrics"
	"frameworks/pkg/logging"
	"frameworks/pkg/models"
)

// RecordingsTable is the Postgres table holding the canvas recording index
const RecordingsTable = "events.canvas_recordings"

const listRecordingsQuery = `
	SELECT cr.session_id, s.project_id, cr.recording_id, cr.timestamp, cr.storage_key
	FROM events.canvas_recordings AS cr
	INNER JOIN public.sessions AS s ON s.session_id = cr.session_id
	WHERE cr.session_id = $1 AND s.project_id = $2
	ORDER BY cr.timestamp`

// Repository reads the canvas recording index
type Repository struct {
	db      *sql.DB
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewRepository creates a repository. m may be nil.
func NewRepository(db *sql.DB, logger logging.Logger, m *metrics.Metrics) *Repository {
	return &Repository{db: db, logger: logger, metrics: m}
}

// ListRecordings returns the recordings of a session that belongs to projectID, oldest first
func (r *Repository) ListRecordings(ctx context.Context, projectID, sessionID uint64) ([]models.CanvasRecording, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		r.observe("error")
		return nil, fmt.Errorf("failed to acquire postgres connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, listRecordingsQuery, sessionID, projectID)
	if err != nil {
		r.observe("error")
		r.logger.WithFields(logging.Fields{
			"project_id": projectID,
			"session_id": sessionID,
			"error":      err,
		}).Error("Failed to query canvas recordings")
		return nil, fmt.Errorf("failed to query canvas recordings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.CanvasRecording
	for rows.Next() {
		var rec models.CanvasRecording
		if err := rows.Scan(&rec.SessionID, &rec.ProjectID, &rec.RecordingID, &rec.Timestamp, &rec.StorageKey); err != nil {
			r.observe("error")
			return nil, fmt.Errorf("failed to scan canvas recording: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		r.observe("error")
		return nil, fmt.Errorf("failed to read canvas recordings: %w", err)
	}

	r.observe("success")
	return out, nil
}

func (r *Repository) observe(status string) {
	if r.metrics != nil {
		r.metrics.PostgresQueries.WithLabelValues(RecordingsTable, status).Inc()
	}
}

package models

import "time"

// BucketRow is one (bucket, dimension) row of a bucketed aggregate query.
// Buckets with no matching events still produce a row: empty Dimension, zero
// Sessions and nil metrics.
type BucketRow struct {
	Bucket      time.Time `json:"bucket"`
	Dimension   string    `json:"dimension"`
	Sessions    uint64    `json:"sessions"`
	SuccessRate *float64  `json:"success_rate,omitempty"`
	AvgDuration *float64  `json:"avg_duration,omitempty"`
	CPU         *float64  `json:"avg_cpu,omitempty"`
	Memory      *float64  `json:"avg_used_js_heap_size,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
}

// IsGap reports whether the row only exists because the bucket sequence was left-joined.
func (r BucketRow) IsGap() bool {
	return r.Dimension == "" && r.Sessions == 0
}

// CanvasRecording is a row of events.canvas_recordings scoped to a project.
type CanvasRecording struct {
	SessionID   uint64    `json:"session_id"`
	ProjectID   uint64    `json:"project_id"`
	RecordingID string    `json:"recording_id"`
	Timestamp   time.Time `json:"timestamp"`
	StorageKey  string    `json:"storage_key"`
}

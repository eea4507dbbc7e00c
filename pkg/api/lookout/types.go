package lookout

import (
	"time"

	"frameworks/pkg/api/common"
	"frameworks/pkg/models"
)

// ErrorResponse is the error envelope returned by every lookout endpoint
type ErrorResponse = common.ErrorResponse

// Metric is a named value. Value is null when it cannot be computed
// (for example a relative change against a zero baseline).
type Metric struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// Periods identifies the two buckets being compared
type Periods struct {
	Current  time.Time `json:"current"`
	Previous time.Time `json:"previous"`
}

// InsightsResponse wraps a period-over-period comparison.
// Comparison is nil when InsufficientData is set.
type InsightsResponse struct {
	ProjectID        uint64      `json:"project_id"`
	Kind             string      `json:"kind"`
	TimeStep         string      `json:"time_step"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          time.Time   `json:"end_time"`
	InsufficientData bool        `json:"insufficient_data"`
	Comparison       interface{} `json:"comparison,omitempty"`
}

// RequestsComparison is the request-traffic widget payload
type RequestsComparison struct {
	Periods           Periods  `json:"periods"`
	DurationIncrease  []Metric `json:"duration_increase"`
	SuccessRateChange []Metric `json:"success_rate_change"`
	SessionsChange    []Metric `json:"sessions_change"`
	LowestSuccessRate []Metric `json:"lowest_success_rate"`
	SlowestHosts      []Metric `json:"slowest_hosts"`
	NewHosts          []string `json:"new_hosts"`
}

// ErrorsComparison is the error widget payload
type ErrorsComparison struct {
	Periods   Periods            `json:"periods"`
	Share     []Metric           `json:"share"`
	Increase  []Metric           `json:"increase"`
	NewErrors []string           `json:"new_errors"`
	Rows      []models.BucketRow `json:"rows"`
}

// ResourceHost is the per-host CPU/memory movement
type ResourceHost struct {
	Name           string   `json:"name"`
	CPU            *float64 `json:"cpu"`
	Memory         *float64 `json:"memory"`
	MemoryRelative *float64 `json:"memory_relative"`
}

// ResourcesComparison is the resource-usage widget payload
type ResourcesComparison struct {
	Periods        Periods        `json:"periods"`
	CPUIncrease    *float64       `json:"cpu_increase"`
	MemoryIncrease *float64       `json:"memory_increase"`
	Hosts          []ResourceHost `json:"hosts"`
	NewHosts       []string       `json:"new_hosts"`
}

// CanvasRecording pairs a recording row with its signed URL
type CanvasRecording struct {
	models.CanvasRecording
	URL string `json:"url"`
}

// CanvasResponse is returned by the canvas endpoint
type CanvasResponse struct {
	ProjectID  uint64            `json:"project_id"`
	SessionID  uint64            `json:"session_id"`
	ExpiresIn  int               `json:"expires_in"`
	Recordings []CanvasRecording `json:"recordings"`
}

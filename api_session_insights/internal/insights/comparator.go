package insights

import (
	"context"
	"errors"
	"time"

	"frameworks/api_session_insights/internal/metrics"
	"frameworks/api_session_insights/internal/query"
	"frameworks/pkg/logging"
	"frameworks/pkg/models"
)

// Fetcher loads bucketed rows; *query.Runner implements it
type Fetcher interface {
	Fetch(ctx context.Context, kind query.Kind, p query.Params) ([]models.BucketRow, error)
}

// Comparator fetches one result set per call and compares its two latest buckets
type Comparator struct {
	fetcher Fetcher
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewComparator creates a comparator. m may be nil.
func NewComparator(f Fetcher, logger logging.Logger, m *metrics.Metrics) *Comparator {
	return &Comparator{fetcher: f, logger: logger, metrics: m}
}

// Requests compares request traffic per host
func (c *Comparator) Requests(ctx context.Context, p query.Params) (*RequestsComparison, error) {
	return compare(ctx, c, query.Requests, p, CompareRequests)
}

// Errors compares error sessions per error name
func (c *Comparator) Errors(ctx context.Context, p query.Params) (*ErrorsComparison, error) {
	return compare(ctx, c, query.Errors, p, CompareErrors)
}

// Resources compares CPU and heap usage per host
func (c *Comparator) Resources(ctx context.Context, p query.Params) (*ResourcesComparison, error) {
	return compare(ctx, c, query.Resources, p, CompareResources)
}

func compare[T any](ctx context.Context, c *Comparator, kind query.Kind, p query.Params, fn func([]models.BucketRow) (T, error)) (T, error) {
	start := time.Now()
	var zero T

	result, err := func() (T, error) {
		if err := p.Validate(); err != nil {
			return zero, err
		}
		// A range that cannot produce two buckets is rejected before querying.
		if len(query.BucketSequence(p.Start, p.End, p.Step)) < 2 {
			return zero, ErrInsufficientData
		}
		rows, err := c.fetcher.Fetch(ctx, kind, p)
		if err != nil {
			return zero, err
		}
		return fn(rows)
	}()

	status := "success"
	switch {
	case errors.Is(err, ErrInsufficientData):
		status = "insufficient_data"
		c.logger.WithFields(logging.Fields{
			"kind":       kind,
			"project_id": p.ProjectID,
			"time_step":  p.Step.String(),
		}).Info("Not enough buckets to compare")
	case err != nil:
		status = "error"
	}

	if c.metrics != nil {
		c.metrics.InsightQueries.WithLabelValues(string(kind), status).Inc()
		c.metrics.QueryDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		if status == "insufficient_data" {
			c.metrics.InsufficientData.WithLabelValues(string(kind)).Inc()
		}
	}

	return result, err
}

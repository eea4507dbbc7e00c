package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"frameworks/api_session_insights/internal/metrics"
	"frameworks/pkg/config"
	"frameworks/pkg/logging"
	"frameworks/pkg/models"
)

const (
	// DefaultExpiration is the lifetime of a signed URL when none is configured
	DefaultExpiration = 900 * time.Second
	// DefaultSessionsBucket is used when neither bucket variable is set
	DefaultSessionsBucket = "mobs"
)

// ErrMissingSession is returned when the project or session id is zero
var ErrMissingSession = errors.New("project and session id are required")

// Signer issues time-limited read URLs; *storage.S3Client implements it
type Signer interface {
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// Lister loads recording rows; *Repository implements it
type Lister interface {
	ListRecordings(ctx context.Context, projectID, sessionID uint64) ([]models.CanvasRecording, error)
}

// Options selects the bucket and URL lifetime
type Options struct {
	Bucket        string
	DefaultBucket string
	Expiration    time.Duration
}

// OptionsFromEnv reads CANVAS_BUCKET, SESSIONS_BUCKET and PRESIGNED_URL_EXPIRATION
func OptionsFromEnv() Options {
	return Options{
		Bucket:        config.GetEnv("CANVAS_BUCKET", ""),
		DefaultBucket: config.GetEnv("SESSIONS_BUCKET", DefaultSessionsBucket),
		Expiration:    config.GetEnvDuration("PRESIGNED_URL_EXPIRATION", DefaultExpiration),
	}
}

// ResolveBucket returns the override bucket, falling back to the default one
func (o Options) ResolveBucket() string {
	if o.Bucket != "" {
		return o.Bucket
	}
	if o.DefaultBucket != "" {
		return o.DefaultBucket
	}
	return DefaultSessionsBucket
}

// ResolveExpiration returns the configured lifetime or DefaultExpiration
func (o Options) ResolveExpiration() time.Duration {
	if o.Expiration > 0 {
		return o.Expiration
	}
	return DefaultExpiration
}

// ResolvedRecording pairs a recording row with its signed URL
type ResolvedRecording struct {
	Recording models.CanvasRecording
	URL       string
}

// Resolver turns a session's recording index into signed URLs
type Resolver struct {
	recordings Lister
	signer     Signer
	opts       Options
	logger     logging.Logger
	metrics    *metrics.Metrics
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(l Lister, s Signer, opts Options, logger logging.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{recordings: l, signer: s, opts: opts, logger: logger, metrics: m}
}

// Options returns the effective bucket and expiration
func (r *Resolver) Options() Options {
	return Options{
		Bucket:        r.opts.ResolveBucket(),
		DefaultBucket: r.opts.DefaultBucket,
		Expiration:    r.opts.ResolveExpiration(),
	}
}

// Resolve returns one signed URL per recording, in timestamp order.
// Any signing failure fails the whole call.
func (r *Resolver) Resolve(ctx context.Context, projectID, sessionID uint64) ([]ResolvedRecording, error) {
	if projectID == 0 || sessionID == 0 {
		return nil, ErrMissingSession
	}

	recs, err := r.recordings.ListRecordings(ctx, projectID, sessionID)
	if err != nil {
		return nil, err
	}

	bucket := r.opts.ResolveBucket()
	expires := r.opts.ResolveExpiration()
	out := make([]ResolvedRecording, 0, len(recs))
	for _, rec := range recs {
		url, err := r.signer.PresignGet(ctx, bucket, rec.StorageKey, expires)
		if err != nil {
			r.observe("error")
			r.logger.WithFields(logging.Fields{
				"project_id":   projectID,
				"session_id":   sessionID,
				"recording_id": rec.RecordingID,
				"error":        err,
			}).Error("Failed to presign canvas recording")
			return nil, fmt.Errorf("failed to presign recording %s: %w", rec.RecordingID, err)
		}
		r.observe("success")
		out = append(out, ResolvedRecording{Recording: rec, URL: url})
	}

	r.logger.WithFields(logging.Fields{
		"project_id": projectID,
		"session_id": sessionID,
		"bucket":     bucket,
		"count":      len(out),
	}).Debug("Resolved canvas recordings")

	return out, nil
}

func (r *Resolver) observe(status string) {
	if r.metrics != nil {
		r.metrics.PresignedURLs.WithLabelValues(status).Inc()
	}
}

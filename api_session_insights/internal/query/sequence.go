package query

import (
	"time"

	"frameworks/api_session_insights/internal/timestep"
)

// BucketSequence lists the buckets the store generates for [start, end):
// both ends are aligned with the step, then stepped by its width.
// The aligned start is always included and the aligned end never is.
func BucketSequence(start, end time.Time, step timestep.Step) []time.Time {
	if step.IsZero() {
		return nil
	}
	from := step.Truncate(start)
	to := step.Truncate(end)
	if !to.After(from) {
		return nil
	}

	width := step.Width()
	n := int((to.Sub(from) + width - 1) / width)
	out := make([]time.Time, 0, n)
	for t := from; t.Before(to); t = t.Add(width) {
		out = append(out, t)
	}
	return out
}

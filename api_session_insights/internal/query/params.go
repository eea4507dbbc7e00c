package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"frameworks/api_session_insights/internal/timestep"
)

// Kind selects one of the bucketed aggregate variants
type Kind string

const (
	Requests  Kind = "requests"
	Errors    Kind = "errors"
	Resources Kind = "resources"
)

// Kinds lists every supported variant in display order
var Kinds = []Kind{Requests, Errors, Resources}

// ErrUnknownKind is returned by ParseKind and Build for unsupported variants
var ErrUnknownKind = errors.New("unknown insight kind")

// ParseKind resolves a case-insensitive variant name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := variants[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Params scopes one bucketed aggregate query
type Params struct {
	ProjectID uint64
	Start     time.Time
	End       time.Time
	Step      timestep.Step
}

// Validate checks the parameters before any query is built
func (p Params) Validate() error {
	if p.ProjectID == 0 {
		return fmt.Errorf("project id is required")
	}
	if p.Step.IsZero() {
		return fmt.Errorf("%w: time step is required", timestep.ErrInvalidStep)
	}
	if !p.End.After(p.Start) {
		return fmt.Errorf("end time %s must be after start time %s",
			p.End.UTC().Format(time.RFC3339), p.Start.UTC().Format(time.RFC3339))
	}
	return nil
}

// ParseTime accepts RFC3339 or a YYYY-MM-DD date (midnight UTC). Empty input yields def.
func ParseTime(value string, def time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q must be RFC3339 or YYYY-MM-DD", value)
}

// Package timestep resolves the time-step tokens accepted by the insights
// endpoints into ClickHouse bucketing expressions and bucket widths.
package timestep

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidStep is returned for tokens that are not hour, day, week or a
// positive whole number of minutes.
var ErrInvalidStep = errors.New("invalid time step")

// Placeholder marks where the bucketed column goes in Template.
const Placeholder = "{0}"

const maxMinutes = math.MaxUint32 / 60

// Step is a resolved bucket size. The zero value is not a valid step.
type Step struct {
	name    string
	minutes int
}

var (
	Hour = Step{name: "hour", minutes: 60}
	Day  = Step{name: "day", minutes: 24 * 60}
	Week = Step{name: "week", minutes: 7 * 24 * 60}
)

// Parse resolves a token. Named tokens are case-insensitive; anything else
// must be a base-10 integer count of minutes.
func Parse(token string) (Step, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "":
		return Step{}, fmt.Errorf("%w: empty token, expected hour, day, week or minutes", ErrInvalidStep)
	}

	n, err := strconv.Atoi(t)
	if err != nil {
		return Step{}, fmt.Errorf("%w: %q must be hour, day, week or an integer number of minutes", ErrInvalidStep, token)
	}
	return Minutes(n)
}

// Minutes builds an n-minute step.
func Minutes(n int) (Step, error) {
	if n <= 0 || n > maxMinutes {
		return Step{}, fmt.Errorf("%w: minutes must be between 1 and %d, got %d", ErrInvalidStep, maxMinutes, n)
	}
	return Step{name: strconv.Itoa(n), minutes: n}, nil
}

// IsZero reports whether s was never resolved.
func (s Step) IsZero() bool {
	return s.minutes == 0
}

func (s Step) String() string {
	return s.name
}

// Seconds is the bucket width in seconds.
func (s Step) Seconds() uint32 {
	return uint32(s.minutes) * 60
}

// Width is the bucket width.
func (s Step) Width() time.Duration {
	return time.Duration(s.minutes) * time.Minute
}

// Zone is the time zone every bucketing expression is evaluated in.
const Zone = "UTC"

// Expr returns the bucketing expression applied to column. Every variant
// yields a DateTime in Zone, so toUInt32 of the result is epoch seconds.
// The only variable part is the validated minute count.
func (s Step) Expr(column string) string {
	switch s.name {
	case Hour.name:
		return fmt.Sprintf("toStartOfHour(%s, '%s')", column, Zone)
	case Day.name:
		return fmt.Sprintf("toStartOfDay(%s, '%s')", column, Zone)
	case Week.name:
		// toStartOfWeek returns a Date; mode 0 starts weeks on Sunday.
		return fmt.Sprintf("toDateTime(toStartOfWeek(%s, 0, '%s'), '%s')", column, Zone, Zone)
	}
	return fmt.Sprintf("toStartOfInterval(%s, INTERVAL %d MINUTE, '%s')", column, s.minutes, Zone)
}

// Template is Expr with a {0} placeholder for the bucketed column.
func (s Step) Template() string {
	return s.Expr(Placeholder)
}

// Truncate mirrors Expr in UTC: weeks start on Sunday and minute intervals are
// aligned to the Unix epoch.
func (s Step) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch s.name {
	case Hour.name:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Day.name:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Week.name:
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return d.AddDate(0, 0, -int(d.Weekday()))
	}

	width := int64(s.Seconds())
	if width == 0 {
		return t
	}
	sec := t.Unix()
	rem := sec % width
	if rem < 0 {
		rem += width
	}
	return time.Unix(sec-rem, 0).UTC()
}

package insights

import (
	"errors"
	"slices"
	"time"

	"frameworks/pkg/models"
)

// ErrInsufficientData is returned when a result holds fewer than two distinct buckets
var ErrInsufficientData = errors.New("insufficient data: fewer than two time buckets")

// PeriodPair holds the two most recent bucket timestamps
type PeriodPair struct {
	Current  time.Time
	Previous time.Time
}

// SelectPeriods picks the two largest distinct bucket timestamps. Row order is not assumed.
func SelectPeriods(rows []models.BucketRow) (PeriodPair, error) {
	var pair PeriodPair
	found := 0
	for _, r := range rows {
		b := r.Bucket
		switch {
		case found > 0 && b.Equal(pair.Current), found > 1 && b.Equal(pair.Previous):
		case found == 0 || b.After(pair.Current):
			pair.Previous = pair.Current
			pair.Current = b
			found++
		case found == 1 || b.After(pair.Previous):
			pair.Previous = b
			found++
		}
	}
	if found < 2 {
		return PeriodPair{}, ErrInsufficientData
	}
	return pair, nil
}

// Partition splits a result into the current and previous slices and their dimensions.
// Gap rows count toward bucket presence but never become a dimension.
type Partition struct {
	Periods  PeriodPair
	Current  []models.BucketRow
	Previous []models.BucketRow
	// New holds dimensions seen only in the current slice, Common those seen
	// in both. Both keep first-appearance order from the current slice.
	New    []string
	Common []string
}

// Split partitions rows around their two most recent buckets
func Split(rows []models.BucketRow) (*Partition, error) {
	periods, err := SelectPeriods(rows)
	if err != nil {
		return nil, err
	}

	p := &Partition{Periods: periods}
	previous := make(map[string]struct{})
	for _, r := range rows {
		switch {
		case r.Bucket.Equal(periods.Current):
			p.Current = append(p.Current, r)
		case r.Bucket.Equal(periods.Previous):
			p.Previous = append(p.Previous, r)
			if !r.IsGap() {
				previous[r.Dimension] = struct{}{}
			}
		}
	}

	for _, dim := range dimensions(p.Current) {
		if _, ok := previous[dim]; ok {
			p.Common = append(p.Common, dim)
		} else {
			p.New = append(p.New, dim)
		}
	}
	return p, nil
}

// CurrentDimensions lists every non-gap dimension of the current slice
func (p *Partition) CurrentDimensions() []string {
	return dimensions(p.Current)
}

func dimensions(rows []models.BucketRow) []string {
	var out []string
	for _, r := range rows {
		if r.IsGap() || slices.Contains(out, r.Dimension) {
			continue
		}
		out = append(out, r.Dimension)
	}
	return out
}

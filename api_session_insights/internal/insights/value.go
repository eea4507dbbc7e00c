package insights

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"frameworks/pkg/models"
)

// Value is a metric that may be undefined: no samples, or a ratio against a
// zero or undefined baseline.
type Value struct {
	Float float64
	Valid bool
}

// Undefined is the value of a metric that cannot be computed
var Undefined = Value{}

// Defined wraps f. NaN and infinities are treated as undefined.
func Defined(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Undefined
	}
	return Value{Float: f, Valid: true}
}

// Sub returns v - o, undefined if either side is.
func (v Value) Sub(o Value) Value {
	if !v.Valid || !o.Valid {
		return Undefined
	}
	return Defined(v.Float - o.Float)
}

// Ratio returns num / den, undefined when den is zero or either side is undefined.
func Ratio(num, den Value) Value {
	if !num.Valid || !den.Valid || den.Float == 0 {
		return Undefined
	}
	return Defined(num.Float / den.Float)
}

// Ptr returns nil for undefined values.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

func (v Value) String() string {
	if !v.Valid {
		return "undefined"
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// Metric selects a nullable value from a bucket row
type Metric func(models.BucketRow) *float64

var (
	SuccessRate Metric = func(r models.BucketRow) *float64 { return r.SuccessRate }
	Duration    Metric = func(r models.BucketRow) *float64 { return r.AvgDuration }
	CPU         Metric = func(r models.BucketRow) *float64 { return r.CPU }
	Memory      Metric = func(r models.BucketRow) *float64 { return r.Memory }
	Sessions    Metric = func(r models.BucketRow) *float64 {
		f := float64(r.Sessions)
		return &f
	}
)

// MeanOf averages metric over rows, skipping nulls.
func MeanOf(rows []models.BucketRow, metric Metric) Value {
	var xs []float64
	for _, r := range rows {
		if v := metric(r); v != nil {
			xs = append(xs, *v)
		}
	}
	if len(xs) == 0 {
		return Undefined
	}
	return Defined(stat.Mean(xs, nil))
}

// SumOf totals metric over rows, skipping nulls.
func SumOf(rows []models.BucketRow, metric Metric) Value {
	var (
		total float64
		seen  bool
	)
	for _, r := range rows {
		if v := metric(r); v != nil {
			total += *v
			seen = true
		}
	}
	if !seen {
		return Undefined
	}
	return Defined(total)
}

// ForDimension keeps the non-gap rows whose dimension is dim.
func ForDimension(rows []models.BucketRow, dim string) []models.BucketRow {
	var out []models.BucketRow
	for _, r := range rows {
		if !r.IsGap() && r.Dimension == dim {
			out = append(out, r)
		}
	}
	return out
}

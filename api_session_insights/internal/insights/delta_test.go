package insights

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameworks/pkg/models"
)

var (
	current  = time.Date(2022, 4, 20, 23, 0, 0, 0, time.UTC)
	previous = current.Add(-time.Hour)
	older    = previous.Add(-time.Hour)
)

func fp(v float64) *float64 { return &v }

type rowOpt func(*models.BucketRow)

func withDuration(v float64) rowOpt { return func(r *models.BucketRow) { r.AvgDuration = fp(v) } }
func withSuccess(v float64) rowOpt { return func(r *models.BucketRow) { r.SuccessRate = fp(v) } }
func withCPU(v float64) rowOpt { return func(r *models.BucketRow) { r.CPU = fp(v) } }
func withMemory(v float64) rowOpt { return func(r *models.BucketRow) { r.Memory = fp(v) } }
func gap(bucket time.Time) models.BucketRow { return models.BucketRow{Bucket: bucket, Sources: []string{}} }

func row(bucket time.Time, dim string, sessions uint64, opts ...rowOpt) models.BucketRow {
	r := models.BucketRow{Bucket: bucket, Dimension: dim, Sessions: sessions}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func names(ds []Delta) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestValue(t *testing.T) {
	assert.Equal(t, Defined(5), Defined(15).Sub(Defined(10)))
	assert.Equal(t, Undefined, Defined(1).Sub(Undefined))
	assert.Equal(t, Undefined, Defined(math.NaN()))
	assert.Equal(t, Undefined, Defined(math.Inf(1)))
	assert.Nil(t, Undefined.Ptr())
	assert.Equal(t, "undefined", Undefined.String())
	assert.Equal(t, "0.25", Defined(0.25).String())
}

func TestRatio(t *testing.T) {
	assert.Equal(t, Defined(0.5), Ratio(Defined(5), Defined(10)))
	assert.Equal(t, Undefined, Ratio(Defined(5), Defined(0)))
	assert.Equal(t, Undefined, Ratio(Defined(5), Undefined))
	assert.Equal(t, Undefined, Ratio(Undefined, Defined(2)))
}

func TestMeanOf_SkipsNulls(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "a", 1, withDuration(10)),
		row(current, "a", 1),
		row(current, "a", 1, withDuration(20)),
	}
	assert.Equal(t, Defined(15), MeanOf(rows, Duration))
	assert.Equal(t, Undefined, MeanOf(rows, CPU))
	assert.Equal(t, Undefined, MeanOf(nil, Duration))
	assert.Equal(t, Defined(3), SumOf(rows, Sessions))
}

func TestSelectPeriods(t *testing.T) {
	rows := []models.BucketRow{
		row(older, "a", 1),
		row(current, "a", 1),
		row(previous, "a", 1),
		row(current, "b", 1),
	}
	pair, err := SelectPeriods(rows)
	require.NoError(t, err)
	assert.Equal(t, current, pair.Current)
	assert.Equal(t, previous, pair.Previous)
}

func TestSelectPeriods_InsufficientData(t *testing.T) {
	_, err := SelectPeriods(nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = SelectPeriods([]models.BucketRow{row(current, "a", 1), row(current, "b", 2)})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = CompareRequests([]models.BucketRow{row(current, "a", 1)})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = CompareErrors(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = CompareResources([]models.BucketRow{gap(current)})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompareRequests_CommonDeltaAndNew(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "A", 3, withDuration(15), withSuccess(0.9)),
		row(current, "B", 1, withDuration(40), withSuccess(1)),
		row(previous, "A", 2, withDuration(10), withSuccess(1)),
	}

	res, err := CompareRequests(rows)
	require.NoError(t, err)

	require.Len(t, res.DurationIncrease, 1)
	assert.Equal(t, "A", res.DurationIncrease[0].Name)
	assert.Equal(t, 5.0, res.DurationIncrease[0].Value.Float)
	assert.True(t, res.DurationIncrease[0].Value.Valid)

	assert.Equal(t, []string{"B"}, res.NewHosts)
	assert.NotContains(t, names(res.DurationIncrease), "B")
	assert.NotContains(t, names(res.SuccessRateChange), "B")
	assert.NotContains(t, names(res.SessionsChange), "B")

	require.Len(t, res.SessionsChange, 1)
	assert.Equal(t, Defined(1), res.SessionsChange[0].Value)
	assert.InDelta(t, -0.1, res.SuccessRateChange[0].Value.Float, 1e-9)

	assert.Equal(t, []string{"A", "B"}, names(res.LowestSuccessRate))
	assert.Equal(t, []string{"B", "A"}, names(res.SlowestHosts))
}

func TestCompareRequests_Ranking(t *testing.T) {
	rows := []models.BucketRow{
		row(previous, "a", 1, withDuration(100), withSuccess(0.9)),
		row(previous, "b", 1, withDuration(100), withSuccess(0.9)),
		row(previous, "c", 1, withDuration(100), withSuccess(0.9)),
		row(previous, "d", 1, withSuccess(0.9)),
		row(current, "a", 1, withDuration(110), withSuccess(0.5)),
		row(current, "b", 1, withDuration(300), withSuccess(0.95)),
		row(current, "c", 1, withDuration(90), withSuccess(0.7)),
		row(current, "d", 1, withDuration(500), withSuccess(0.8)),
	}

	res, err := CompareRequests(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c", "d"}, names(res.DurationIncrease))
	defined := res.DurationIncrease[:3]
	for i := 1; i < len(defined); i++ {
		assert.Greater(t, defined[i-1].Value.Float, defined[i].Value.Float)
	}
	assert.False(t, res.DurationIncrease[3].Value.Valid)

	assert.Equal(t, []string{"a", "c", "d", "b"}, names(res.SuccessRateChange))
	for i := 1; i < len(res.SuccessRateChange); i++ {
		assert.Less(t, res.SuccessRateChange[i-1].Value.Float, res.SuccessRateChange[i].Value.Float)
	}
	assert.Empty(t, res.NewHosts)
}

func TestSplit_GapRows(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "a", 2, withDuration(10)),
		gap(previous),
		gap(older),
	}

	p, err := Split(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, p.New)
	assert.Empty(t, p.Common)
	assert.Len(t, p.Previous, 1)

	res, err := CompareRequests(rows)
	require.NoError(t, err)
	assert.Empty(t, res.DurationIncrease)
	assert.Equal(t, []string{"a"}, res.NewHosts)
}

func TestCompareErrors(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "TypeError", 6),
		row(current, "ReferenceError", 3),
		row(current, "SyntaxError", 1),
		row(previous, "TypeError", 2),
		row(previous, "ReferenceError", 4),
		gap(older),
	}

	res, err := CompareErrors(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"TypeError", "ReferenceError", "SyntaxError"}, names(res.Share))
	assert.InDelta(t, 0.6, res.Share[0].Value.Float, 1e-9)
	assert.InDelta(t, 0.3, res.Share[1].Value.Float, 1e-9)

	require.Len(t, res.Increase, 2)
	assert.Equal(t, Delta{Name: "TypeError", Value: Defined(4)}, res.Increase[0])
	assert.Equal(t, Delta{Name: "ReferenceError", Value: Defined(-1)}, res.Increase[1])

	assert.Equal(t, []string{"SyntaxError"}, res.NewErrors)
	assert.Equal(t, rows, res.Rows)
}

func TestCompareErrors_NoCurrentSessions(t *testing.T) {
	rows := []models.BucketRow{gap(current), row(previous, "TypeError", 2)}

	res, err := CompareErrors(rows)
	require.NoError(t, err)
	assert.Empty(t, res.Share)
	assert.Empty(t, res.Increase)
	assert.Empty(t, res.NewErrors)
}

func TestCompareResources_ZeroBaseline(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "app", 1, withCPU(30), withMemory(5)),
		row(previous, "app", 1, withCPU(20), withMemory(0)),
	}

	require.NotPanics(t, func() {
		res, err := CompareResources(rows)
		require.NoError(t, err)
		assert.Equal(t, Defined(10), res.CPUIncrease)
		assert.Equal(t, Undefined, res.MemoryIncrease)
		assert.False(t, res.MemoryIncrease.Valid)

		require.Len(t, res.Hosts, 1)
		assert.Equal(t, Defined(5), res.Hosts[0].Memory)
		assert.Equal(t, Undefined, res.Hosts[0].MemoryRelative)
	})
}

func TestCompareResources(t *testing.T) {
	rows := []models.BucketRow{
		row(current, "a", 1, withCPU(10), withMemory(150)),
		row(current, "b", 1, withCPU(30), withMemory(300)),
		row(current, "c", 1, withCPU(5), withMemory(50)),
		row(previous, "a", 1, withCPU(10), withMemory(100)),
		row(previous, "b", 1, withCPU(10), withMemory(100)),
	}

	res, err := CompareResources(rows)
	require.NoError(t, err)

	assert.InDelta(t, 5, res.CPUIncrease.Float, 1e-9)
	// (500/3 - 100) / 100
	assert.InDelta(t, 2.0/3.0, res.MemoryIncrease.Float, 1e-9)

	require.Len(t, res.Hosts, 2)
	assert.Equal(t, "b", res.Hosts[0].Name)
	assert.Equal(t, Defined(200), res.Hosts[0].Memory)
	assert.Equal(t, Defined(2), res.Hosts[0].MemoryRelative)
	assert.Equal(t, Defined(20), res.Hosts[0].CPU)
	assert.Equal(t, "a", res.Hosts[1].Name)
	assert.Equal(t, Defined(0.5), res.Hosts[1].MemoryRelative)
	assert.Equal(t, []string{"c"}, res.NewHosts)
}

func TestRank_UndefinedLastTiesByName(t *testing.T) {
	ds := []Delta{
		{Name: "z", Value: Undefined},
		{Name: "b", Value: Defined(1)},
		{Name: "a", Value: Defined(1)},
		{Name: "c", Value: Defined(2)},
		{Name: "y", Value: Undefined},
	}
	assert.Equal(t, []string{"c", "a", "b", "y", "z"}, names(Rank(ds, Descending)))
	assert.Equal(t, []string{"a", "b", "c", "y", "z"}, names(Rank(ds, Ascending)))
}

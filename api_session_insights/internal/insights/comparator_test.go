package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameworks/api_session_insights/internal/metrics"
	"frameworks/api_session_insights/internal/query"
	"frameworks/api_session_insights/internal/timestep"
	"frameworks/pkg/models"
	"frameworks/pkg/monitoring"
)

type fakeFetcher struct {
	rows  []models.BucketRow
	err   error
	calls []query.Kind
}

func (f *fakeFetcher) Fetch(_ context.Context, kind query.Kind, _ query.Params) ([]models.BucketRow, error) {
	f.calls = append(f.calls, kind)
	return f.rows, f.err
}

func newComparator(f Fetcher) (*Comparator, *metrics.Metrics, *logrustest.Hook) {
	logger, hook := logrustest.NewNullLogger()
	m := metrics.New(monitoring.NewMetricsCollector("lookout", "test", "test"))
	return NewComparator(f, logger, m), m, hook
}

func dayParams() query.Params {
	return query.Params{
		ProjectID: 1307,
		Start:     time.Date(2022, 4, 19, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2022, 4, 21, 0, 0, 0, 0, time.UTC),
		Step:      timestep.Hour,
	}
}

func TestComparator_Requests(t *testing.T) {
	f := &fakeFetcher{rows: []models.BucketRow{
		row(current, "A", 1, withDuration(15)),
		row(previous, "A", 1, withDuration(10)),
	}}
	c, m, _ := newComparator(f)

	res, err := c.Requests(context.Background(), dayParams())
	require.NoError(t, err)
	assert.Equal(t, []query.Kind{query.Requests}, f.calls)
	assert.Equal(t, Defined(5), res.DurationIncrease[0].Value)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InsightQueries.WithLabelValues("requests", "success")))
}

func TestComparator_KindsRouteToFetcher(t *testing.T) {
	f := &fakeFetcher{rows: []models.BucketRow{row(current, "x", 1), row(previous, "x", 1)}}
	c, _, _ := newComparator(f)

	_, err := c.Errors(context.Background(), dayParams())
	require.NoError(t, err)
	_, err = c.Resources(context.Background(), dayParams())
	require.NoError(t, err)
	assert.Equal(t, []query.Kind{query.Errors, query.Resources}, f.calls)
}

func TestComparator_InsufficientDataFromRows(t *testing.T) {
	f := &fakeFetcher{rows: []models.BucketRow{row(current, "A", 1)}}
	c, m, hook := newComparator(f)

	_, err := c.Errors(context.Background(), dayParams())
	require.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InsufficientData.WithLabelValues("errors")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InsightQueries.WithLabelValues("errors", "insufficient_data")))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Not enough buckets to compare", hook.LastEntry().Message)
}

func TestComparator_NarrowRangeSkipsQuery(t *testing.T) {
	f := &fakeFetcher{}
	c, _, _ := newComparator(f)

	p := dayParams()
	p.End = p.Start.Add(90 * time.Minute)
	_, err := c.Resources(context.Background(), p)
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Empty(t, f.calls)
}

func TestComparator_InvalidParams(t *testing.T) {
	f := &fakeFetcher{}
	c, m, _ := newComparator(f)

	p := dayParams()
	p.Step = timestep.Step{}
	_, err := c.Requests(context.Background(), p)
	require.ErrorIs(t, err, timestep.ErrInvalidStep)
	assert.Empty(t, f.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InsightQueries.WithLabelValues("requests", "error")))
}

func TestComparator_FetchError(t *testing.T) {
	boom := errors.New("clickhouse unavailable")
	c, m, _ := newComparator(&fakeFetcher{err: boom})

	_, err := c.Requests(context.Background(), dayParams())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InsightQueries.WithLabelValues("requests", "error")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InsufficientData.WithLabelValues("requests")))
}

func TestAPIConversion(t *testing.T) {
	res, err := CompareResources([]models.BucketRow{
		row(current, "app", 1, withCPU(30), withMemory(5)),
		row(previous, "app", 1, withCPU(20), withMemory(0)),
	})
	require.NoError(t, err)

	api := res.API()
	require.NotNil(t, api.CPUIncrease)
	assert.Equal(t, 10.0, *api.CPUIncrease)
	assert.Nil(t, api.MemoryIncrease)
	assert.Equal(t, current, api.Periods.Current)
	require.Len(t, api.Hosts, 1)
	assert.Nil(t, api.Hosts[0].MemoryRelative)
	assert.Equal(t, []string{}, api.NewHosts)
}

package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	assert.Equal(t, StatusHealthy, hc.CheckHealth().Status)

	hc.AddCheck("slow", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	assert.Equal(t, StatusDegraded, hc.CheckHealth().Status)

	hc.AddCheck("weird", func() CheckResult { return CheckResult{Status: "???"} })
	assert.Equal(t, StatusUnhealthy, hc.CheckHealth().Status)
}

func TestHealthChecker_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("config", ConfigurationHealthCheck(map[string]string{"CLICKHOUSE_HOST": ""}))

	r := gin.New()
	r.GET("/health", hc.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Missing required configuration: CLICKHOUSE_HOST")
}

func TestObjectStorageHealthCheck(t *testing.T) {
	ok := ObjectStorageHealthCheck(func(context.Context) error { return nil })()
	assert.Equal(t, StatusHealthy, ok.Status)

	down := ObjectStorageHealthCheck(func(context.Context) error { return errors.New("no such bucket") })()
	assert.Equal(t, StatusDegraded, down.Status)
	assert.Contains(t, down.Message, "no such bucket")

	assert.Equal(t, StatusUnhealthy, ObjectStorageHealthCheck(nil)().Status)
}

func TestPingHealthCheck_HasDeadline(t *testing.T) {
	res := PingHealthCheck("probe", StatusUnhealthy, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		return nil
	})()
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "probe reachable", res.Message)
}

func TestClickHouseHealthCheck_NilDB(t *testing.T) {
	res := ClickHouseHealthCheck(nil)()
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "ClickHouse connection is nil", res.Message)
}

func TestDatabaseHealthCheck_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.Equal(t, StatusHealthy, DatabaseHealthCheck(db)().Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCollector_IndependentRegistries(t *testing.T) {
	a := NewMetricsCollector("svc-a", "v1", "abc")
	b := NewMetricsCollector("svc-a", "v1", "abc")

	ca := a.NewCounter("things_total", "things", []string{"kind"})
	cb := b.NewCounter("things_total", "things", []string{"kind"})
	ca.WithLabelValues("x").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(ca.WithLabelValues("x")))
	assert.Equal(t, float64(0), testutil.ToFloat64(cb.WithLabelValues("x")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := NewMetricsCollector("lookout", "v1", "abc")
	r := gin.New()
	r.Use(mc.MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", mc.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lookout_http_requests_total{endpoint="/ping",method="GET",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "lookout_service_info")
}

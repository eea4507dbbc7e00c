package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"frameworks/pkg/monitoring"
)

// Metrics holds all Prometheus metrics for the session insights service
type Metrics struct {
	InsightQueries    *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	ClickHouseQueries *prometheus.CounterVec
	PostgresQueries   *prometheus.CounterVec
	PresignedURLs     *prometheus.CounterVec
	InsufficientData  *prometheus.CounterVec
}

// New registers the service metrics on the collector's registry
func New(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		InsightQueries:    mc.NewCounter("insight_queries_total", "Period comparisons served", []string{"kind", "status"}),
		QueryDuration:     mc.NewHistogram("insight_query_duration_seconds", "Period comparison duration", []string{"kind"}, nil),
		ClickHouseQueries: mc.NewCounter("clickhouse_queries_total", "ClickHouse queries executed", []string{"table", "status"}),
		PostgresQueries:   mc.NewCounter("postgres_queries_total", "PostgreSQL queries executed", []string{"table", "status"}),
		PresignedURLs:     mc.NewCounter("presigned_urls_total", "Presigned canvas URLs generated", []string{"status"}),
		InsufficientData:  mc.NewCounter("insufficient_data_total", "Comparisons with fewer than two buckets", []string{"kind"}),
	}
}

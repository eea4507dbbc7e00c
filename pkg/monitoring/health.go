package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthChecker manages and executes health checks
type HealthChecker struct {
	service string
	version string
	checks  map[string]HealthCheck
}

// HealthCheck is a function that performs a health check
type HealthCheck func() CheckResult

// NewHealthChecker creates a new health checker instance
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck adds a health check to the checker
func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.checks[name] = check
}

// CheckHealth runs all health checks and returns the overall status
func (hc *HealthChecker) CheckHealth() HealthStatus {
	status := HealthStatus{
		Service:   hc.service,
		Version:   hc.version,
		Timestamp: time.Now().Unix(),
		Checks:    make(map[string]CheckResult, len(hc.checks)),
	}

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	anyUnhealthy := false
	anyDegraded := false
	for _, name := range names {
		result := hc.checks[name]()
		status.Checks[name] = result
		switch result.Status {
		case StatusHealthy:
		case StatusDegraded:
			anyDegraded = true
		default:
			anyUnhealthy = true
		}
	}

	switch {
	case anyUnhealthy:
		status.Status = StatusUnhealthy
	case anyDegraded:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}

	return status
}

// Handler returns a gin handler for the health check endpoint
func (hc *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := hc.CheckHealth()
		statusCode := http.StatusOK
		if health.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}

// PingHealthCheck wraps a context-aware ping into a HealthCheck. Failures
// report the given status so optional dependencies can degrade instead of fail.
func PingHealthCheck(label, failStatus string, ping func(context.Context) error) HealthCheck {
	return func() CheckResult {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := ping(ctx)
		latency := time.Since(start).String()
		if err != nil {
			return CheckResult{
				Status:  failStatus,
				Message: fmt.Sprintf("%s ping failed: %v", label, err),
				Latency: latency,
			}
		}
		return CheckResult{Status: StatusHealthy, Message: label + " reachable", Latency: latency}
	}
}

// DatabaseHealthCheck creates a health check for PostgreSQL connectivity
func DatabaseHealthCheck(db *sql.DB) HealthCheck {
	if db == nil {
		return unhealthy("Database connection is nil")
	}
	return PingHealthCheck("Database", StatusUnhealthy, db.PingContext)
}

// ClickHouseHealthCheck creates a health check for ClickHouse SQL connection
func ClickHouseHealthCheck(db *sql.DB) HealthCheck {
	if db == nil {
		return unhealthy("ClickHouse connection is nil")
	}
	return PingHealthCheck("ClickHouse", StatusUnhealthy, db.PingContext)
}

// ObjectStorageHealthCheck reports degraded, not unhealthy, when the bucket
// cannot be reached: only canvas URLs depend on it.
func ObjectStorageHealthCheck(ping func(context.Context) error) HealthCheck {
	if ping == nil {
		return unhealthy("Object storage client is nil")
	}
	return PingHealthCheck("Object storage", StatusDegraded, ping)
}

// ConfigurationHealthCheck flags required settings that resolved to empty values.
func ConfigurationHealthCheck(configs map[string]string) HealthCheck {
	return func() CheckResult {
		var missing []string
		for key, value := range configs {
			if value == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) == 0 {
			return CheckResult{Status: StatusHealthy, Message: "All required configuration present"}
		}
		sort.Strings(missing)
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "Missing required configuration: " + strings.Join(missing, ", "),
		}
	}
}

func unhealthy(message string) HealthCheck {
	return func() CheckResult {
		return CheckResult{Status: StatusUnhealthy, Message: message}
	}
}

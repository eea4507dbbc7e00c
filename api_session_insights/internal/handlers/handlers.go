package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"frameworks/api_session_insights/internal/canvas"
	"frameworks/api_session_insights/internal/insights"
	"frameworks/api_session_insights/internal/metrics"
	"frameworks/api_session_insights/internal/query"
	"frameworks/api_session_insights/internal/timestep"
	"frameworks/pkg/api/common"
	"frameworks/pkg/api/lookout"
	"frameworks/pkg/auth"
	"frameworks/pkg/logging"
	"frameworks/pkg/middleware"
)

const serviceName = "lookout"

var (
	comparator     *insights.Comparator
	resolver       *canvas.Resolver
	logger         logging.Logger
	serviceMetrics *metrics.Metrics
)

// Init initializes the handlers package with its collaborators and metrics
func Init(c *insights.Comparator, r *canvas.Resolver, log logging.Logger, m *metrics.Metrics) {
	comparator = c
	resolver = r
	logger = log
	serviceMetrics = m
}

// RegisterRoutes mounts the insight and canvas endpoints on an authenticated group
func RegisterRoutes(r gin.IRoutes) {
	r.GET("/projects/:project_id/insights/requests", GetRequestsInsights)
	r.GET("/projects/:project_id/insights/errors", GetErrorsInsights)
	r.GET("/projects/:project_id/insights/resources", GetResourcesInsights)
	r.GET("/projects/:project_id/sessions/:session_id/canvas", GetCanvasRecordings)
}

// GetRequestsInsights compares request traffic per host between the two latest buckets
func GetRequestsInsights(c *gin.Context) {
	serveInsights(c, query.Requests)
}

// GetErrorsInsights compares error sessions per error name between the two latest buckets
func GetErrorsInsights(c *gin.Context) {
	serveInsights(c, query.Errors)
}

// GetResourcesInsights compares CPU and heap usage between the two latest buckets
func GetResourcesInsights(c *gin.Context) {
	serveInsights(c, query.Resources)
}

func serveInsights(c *gin.Context, kind query.Kind) {
	params, ok := parseInsightParams(c)
	if !ok {
		countRejected(kind, "invalid")
		return
	}
	if !auth.CanAccessProject(c, params.ProjectID) {
		countRejected(kind, "forbidden")
		abort(c, http.StatusForbidden, common.CodeForbidden, "Project access denied")
		return
	}

	resp := lookout.InsightsResponse{
		ProjectID: params.ProjectID,
		Kind:      string(kind),
		TimeStep:  params.Step.String(),
		StartTime: params.Start,
		EndTime:   params.End,
	}

	var err error
	ctx := c.Request.Context()
	switch kind {
	case query.Requests:
		var res *insights.RequestsComparison
		if res, err = comparator.Requests(ctx, params); err == nil {
			resp.Comparison = res.API()
		}
	case query.Errors:
		var res *insights.ErrorsComparison
		if res, err = comparator.Errors(ctx, params); err == nil {
			resp.Comparison = res.API()
		}
	case query.Resources:
		var res *insights.ResourcesComparison
		if res, err = comparator.Resources(ctx, params); err == nil {
			resp.Comparison = res.API()
		}
	}

	switch {
	case errors.Is(err, insights.ErrInsufficientData):
		resp.InsufficientData = true
	case errors.Is(err, timestep.ErrInvalidStep):
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest, err.Error())
		return
	case err != nil:
		middleware.GetContextLogger(c, logger).WithError(err).WithField("kind", kind).Error("Failed to compare periods")
		abort(c, http.StatusInternalServerError, common.CodeInternal, "Failed to compute insights")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCanvasRecordings returns signed URLs for a session's canvas recordings
func GetCanvasRecordings(c *gin.Context) {
	projectID, err := parseID(c.Param("project_id"))
	if err != nil {
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest, "Invalid project_id")
		return
	}
	sessionID, err := parseID(c.Param("session_id"))
	if err != nil {
		abort(c, http.StatusBadRequest, common.CodeInvalidRequest, "Invalid session_id")
		return
	}
	if !auth.CanAccessProject(c, projectID) {
		abort(c, http.StatusForbidden, common.CodeForbidden, "Project access denied")
		return
	}

	resolved, err := resolver.Resolve(c.Request.Context(), projectID, sessionID)
	if err != nil {
		middleware.GetContextLogger(c, logger).WithError(err).WithField("session_id", sessionID).Error("Failed to resolve canvas recordings")
		abort(c, http.StatusInternalServerError, common.CodeInternal, "Failed to resolve canvas recordings")
		return
	}

	resp := lookout.CanvasResponse{
		ProjectID:  projectID,
		SessionID:  sessionID,
		ExpiresIn:  int(resolver.Options().Expiration.Seconds()),
		Recordings: make([]lookout.CanvasRecording, 0, len(resolved)),
	}
	for _, rr := range resolved {
		resp.Recordings = append(resp.Recordings, lookout.CanvasRecording{CanvasRecording: rr.Recording, URL: rr.URL})
	}
	c.JSON(http.StatusOK, resp)
}

func parseInsightParams(c *gin.Context) (query.Params, bool) {
	fields := make(map[string]string)

	projectID, err := parseID(c.Param("project_id"))
	if err != nil {
		fields["project_id"] = "must be a positive integer"
	}

	now := time.Now().UTC()
	start, err := query.ParseTime(c.Query("start_time"), now.Add(-24*time.Hour))
	if err != nil {
		fields["start_time"] = err.Error()
	}
	end, err := query.ParseTime(c.Query("end_time"), now)
	if err != nil {
		fields["end_time"] = err.Error()
	}

	step, err := timestep.Parse(c.DefaultQuery("time_step", "hour"))
	if err != nil {
		fields["time_step"] = err.Error()
	}

	if len(fields) == 0 && !end.After(start) {
		fields["end_time"] = "must be after start_time"
	}

	if len(fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, common.ValidationErrorResponse{
			Error:  "Invalid query parameters",
			Fields: fields,
		})
		return query.Params{}, false
	}

	return query.Params{ProjectID: projectID, Start: start, End: end, Step: step}, true
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

// countRejected records requests turned away before reaching the comparator
func countRejected(kind query.Kind, status string) {
	if serviceMetrics != nil {
		serviceMetrics.InsightQueries.WithLabelValues(string(kind), status).Inc()
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, common.ErrorResponse{Error: msg, Code: code, Service: serviceName})
}

package query

import (
	"fmt"
	"strings"

	"frameworks/api_session_insights/internal/timestep"
	"frameworks/pkg/models"
)

// EventsTable is the ClickHouse table every variant reads
const EventsTable = "events"

type aggregate struct {
	alias string
	expr  string
	set   func(*models.BucketRow, *float64)
}

type variant struct {
	eventType string
	dimension string
	source    string
	columns   []string
	metrics   []aggregate
}

var variants = map[Kind]variant{
	Requests: {
		eventType: "REQUEST",
		dimension: "url_host",
		source:    "url_path",
		columns:   []string{"success", "duration"},
		metrics: []aggregate{
			{alias: "success_rate", expr: "avgOrNull(T2.success)", set: func(r *models.BucketRow, v *float64) { r.SuccessRate = v }},
			{alias: "avg_duration", expr: "avgOrNull(T2.duration)", set: func(r *models.BucketRow, v *float64) { r.AvgDuration = v }},
		},
	},
	Errors: {
		eventType: "ERROR",
		dimension: "name",
		source:    "source",
	},
	Resources: {
		eventType: "PERFORMANCE",
		dimension: "url_host",
		source:    "url_path",
		columns:   []string{"avg_cpu", "avg_used_js_heap_size"},
		metrics: []aggregate{
			{alias: "cpu_used", expr: "avgOrNull(T2.avg_cpu)", set: func(r *models.BucketRow, v *float64) { r.CPU = v }},
			{alias: "memory_used", expr: "avgOrNull(T2.avg_used_js_heap_size)", set: func(r *models.BucketRow, v *float64) { r.Memory = v }},
		},
	},
}

// EventType is the events.event_type value a variant filters on
func (k Kind) EventType() string {
	return variants[k].eventType
}

// Build renders the bucketed aggregate query for kind.
//
// The generated bucket sequence is left-joined onto events bucketed with the
// same expression, so buckets without events still produce a row. join_use_nulls
// makes those rows carry NULL dimension and metrics and a zero count.
// All bucketing runs in timestep.Zone regardless of the server time zone.
// Args are bound in order: range start, range end, step seconds, project, event type.
func Build(kind Kind, p Params) (string, []interface{}, error) {
	v, ok := variants[kind]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err := p.Validate(); err != nil {
		return "", nil, err
	}

	selects := []string{
		"T1.hh AS hh",
		"count(T2.session_id) AS sessions",
		"T2." + v.dimension + " AS names",
		"groupUniqArray(T2." + v.source + ") AS sources",
	}
	for _, m := range v.metrics {
		selects = append(selects, m.expr+" AS "+m.alias)
	}

	inner := append([]string{"session_id", v.dimension, v.source}, v.columns...)
	inner = append(inner, p.Step.Expr("datetime")+" AS dtime")

	var b strings.Builder
	b.WriteString("WITH\n")
	param := fmt.Sprintf("toDateTime(?, '%s')", timestep.Zone)
	fmt.Fprintf(&b, "  %s AS range_start,\n", p.Step.Expr(param))
	fmt.Fprintf(&b, "  %s AS range_end\n", p.Step.Expr(param))
	fmt.Fprintf(&b, "SELECT %s\n", strings.Join(selects, ", "))
	fmt.Fprintf(&b, "FROM (SELECT arrayJoin(arrayMap(x -> toDateTime(x, '%s'), range(toUInt32(range_start), toUInt32(range_end), ?))) AS hh) AS T1\n", timestep.Zone)
	fmt.Fprintf(&b, "LEFT JOIN (SELECT %s FROM %s WHERE project_id = ? AND event_type = ?) AS T2 ON T2.dtime = T1.hh\n",
		strings.Join(inner, ", "), EventsTable)
	fmt.Fprintf(&b, "GROUP BY T1.hh, T2.%s\n", v.dimension)
	b.WriteString("ORDER BY hh DESC, names ASC\n")
	b.WriteString("SETTINGS join_use_nulls = 1")

	args := []interface{}{
		p.Start.UTC().Unix(),
		p.End.UTC().Unix(),
		p.Step.Seconds(),
		p.ProjectID,
		v.eventType,
	}
	return b.String(), args, nil
}

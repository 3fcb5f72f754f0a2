package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const eventColumns = "event_id, timestamp, kind, success, cached, reason, " +
	"query, tool_name, tool_count, latency_ms"

// Reader provides read access to the ClickHouse catalog_events table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EventRow is a single row of catalog_events.
type EventRow struct {
	EventID   string
	Timestamp time.Time
	Kind      string
	Success   uint8
	Cached    uint8
	Reason    string
	Query     string
	ToolName  string
	ToolCount int32
	LatencyMs float32
}

// ListEventsParams holds filters and pagination for event listing.
type ListEventsParams struct {
	Kind      *string
	Success   *bool
	ToolName  *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

// eventFilter renders the WHERE clause and named arguments for params.
func eventFilter(params ListEventsParams) (string, []any) {
	conditions := []string{"1 = 1"}
	var args []any

	if params.Kind != nil {
		conditions = append(conditions, "kind = @kind")
		args = append(args, clickhouse.Named("kind", *params.Kind))
	}
	if params.Success != nil {
		conditions = append(conditions, "success = @success")
		args = append(args, clickhouse.Named("success", boolToUint8(*params.Success)))
	}
	if params.ToolName != nil {
		conditions = append(conditions, "lower(tool_name) = lower(@tool_name)")
		args = append(args, clickhouse.Named("tool_name", *params.ToolName))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	return strings.Join(conditions, " AND "), args
}

// ListEvents returns paginated, filtered catalog events, newest first, and the total count.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]EventRow, int, error) {
	where, args := eventFilter(params)
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM catalog_events WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents count: %w", err)
	}

	dataQuery := fmt.Sprintf(
		"SELECT %s FROM catalog_events WHERE %s "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		eventColumns, where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(
			&e.EventID, &e.Timestamp, &e.Kind, &e.Success, &e.Cached, &e.Reason,
			&e.Query, &e.ToolName, &e.ToolCount, &e.LatencyMs,
		); err != nil {
			return nil, 0, fmt.Errorf("ListEvents scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// SummaryStats holds aggregate counts.
type SummaryStats struct {
	Fetches        int `json:"fetches"`
	FailedFetches  int `json:"failed_fetches"`
	Suggestions    int `json:"suggestions"`
	FailedSuggests int `json:"failed_suggestions"`
	CachedSuggests int `json:"cached_suggestions"`
	ToolReads      int `json:"tool_reads"`
	LastToolCount  int `json:"last_tool_count"`
}

// ToolCount holds a tool name and how often it was suggested.
type ToolCount struct {
	ToolName string `json:"tool_name"`
	Count    int    `json:"count"`
}

// LatencyStats holds latency percentiles.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// AnalyticsResult holds all analytics aggregations.
type AnalyticsResult struct {
	Summary           SummaryStats `json:"summary"`
	TopSuggestedTools []ToolCount  `json:"top_suggested_tools"`
	SuggestLatency    LatencyStats `json:"suggest_latency"`
}

// GetAnalytics returns aggregated catalog analytics over the given number of days.
func (r *Reader) GetAnalytics(ctx context.Context, days int) (*AnalyticsResult, error) {
	now := time.Now().UTC()
	rangeArg := clickhouse.Named("range_start", now.Add(-time.Duration(days)*24*time.Hour))

	result := &AnalyticsResult{}

	var fetches, failedFetches, suggests, failedSuggests, cachedSuggests, toolReads uint64
	err := r.conn.QueryRow(ctx,
		"SELECT countIf(kind = 'fetch') as fetches, "+
			"countIf(kind = 'fetch' AND success = 0) as failed_fetches, "+
			"countIf(kind = 'suggest') as suggestions, "+
			"countIf(kind = 'suggest' AND success = 0) as failed_suggestions, "+
			"countIf(kind = 'suggest' AND cached = 1) as cached_suggestions, "+
			"countIf(kind = 'fetch_tool') as tool_reads "+
			"FROM catalog_events WHERE timestamp >= @range_start",
		rangeArg,
	).Scan(&fetches, &failedFetches, &suggests, &failedSuggests, &cachedSuggests, &toolReads)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics summary: %w", err)
	}

	var lastToolCount int32
	err = r.conn.QueryRow(ctx,
		"SELECT argMax(tool_count, timestamp) FROM catalog_events "+
			"WHERE kind = 'fetch' AND success = 1 AND timestamp >= @range_start",
		rangeArg,
	).Scan(&lastToolCount)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics last_tool_count: %w", err)
	}

	result.Summary = SummaryStats{
		Fetches:        int(fetches),
		FailedFetches:  int(failedFetches),
		Suggestions:    int(suggests),
		FailedSuggests: int(failedSuggests),
		CachedSuggests: int(cachedSuggests),
		ToolReads:      int(toolReads),
		LastToolCount:  int(lastToolCount),
	}

	toolRows, err := r.conn.Query(ctx,
		"SELECT tool_name, count() as count FROM catalog_events "+
			"WHERE kind = 'suggest' AND success = 1 AND tool_name != '' "+
			"AND timestamp >= @range_start "+
			"GROUP BY tool_name ORDER BY count DESC LIMIT 10",
		rangeArg,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_tools: %w", err)
	}
	defer func() { _ = toolRows.Close() }()
	for toolRows.Next() {
		var name string
		var count uint64
		if err := toolRows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_tools scan: %w", err)
		}
		result.TopSuggestedTools = append(result.TopSuggestedTools, ToolCount{ToolName: name, Count: int(count)})
	}

	// Uncached suggestions only; cache hits would drag the percentiles to zero.
	var p50, p95, p99 float64
	err = r.conn.QueryRow(ctx,
		"SELECT quantile(0.5)(latency_ms) as p50, "+
			"quantile(0.95)(latency_ms) as p95, "+
			"quantile(0.99)(latency_ms) as p99 "+
			"FROM catalog_events "+
			"WHERE kind = 'suggest' AND cached = 0 AND timestamp >= @range_start",
		rangeArg,
	).Scan(&p50, &p95, &p99)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics latency: %w", err)
	}
	result.SuggestLatency = LatencyStats{P50: safeFloat(p50), P95: safeFloat(p95), P99: safeFloat(p99)}

	if result.TopSuggestedTools == nil {
		result.TopSuggestedTools = []ToolCount{}
	}
	return result, nil
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for quantile() on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}

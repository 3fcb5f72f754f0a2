package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/triage-ai/palisade/services/tool_catalog/internal/storage"
	"go.uber.org/zap"
)

// EventReader queries recorded catalog events. Implemented by storage.Reader.
type EventReader interface {
	ListEvents(ctx context.Context, params storage.ListEventsParams) ([]storage.EventRow, int, error)
	GetAnalytics(ctx context.Context, days int) (*storage.AnalyticsResult, error)
}

func (d *Dependencies) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if d.Events == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("ClickHouse not configured"))
		return
	}

	q := r.URL.Query()
	params := storage.ListEventsParams{
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.PageSize < 1 {
		params.PageSize = 50
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("kind"); v != "" {
		params.Kind = &v
	}
	if v := q.Get("success"); v != "" {
		b := v == "true" || v == "1"
		params.Success = &b
	}
	if v := q.Get("tool_name"); v != "" {
		params.ToolName = &v
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.EndTime = &t
		}
	}

	events, total, err := d.Events.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to list events"))
		return
	}

	resp := EventListResp{
		Success:  true,
		Events:   make([]CatalogEventResp, 0, len(events)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, eventRowToResp(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	if d.Events == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("ClickHouse not configured"))
		return
	}

	days := queryInt(r.URL.Query(), "days", 7)
	if days < 1 || days > 90 {
		writeJSON(w, http.StatusBadRequest, errorResp("days must be between 1 and 90"))
		return
	}

	result, err := d.Events.GetAnalytics(r.Context(), days)
	if err != nil {
		d.Logger.Error("failed to get analytics", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to get analytics"))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func eventRowToResp(e storage.EventRow) CatalogEventResp {
	return CatalogEventResp{
		EventID:   e.EventID,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		Success:   e.Success == 1,
		Cached:    e.Cached == 1,
		Reason:    e.Reason,
		Query:     e.Query,
		ToolName:  e.ToolName,
		ToolCount: int(e.ToolCount),
		LatencyMs: float64(e.LatencyMs),
	}
}

// queryInt reads an integer query parameter, falling back to def when absent or malformed.
func queryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

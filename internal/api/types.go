package api

import (
	"time"

	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/route"
)

// ErrorResp is the body of every non-2xx response. It mirrors the backend's
// {success:false, error} envelope.
type ErrorResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorResp(msg string) ErrorResp {
	return ErrorResp{Success: false, Error: msg}
}

// --- GET /catalog/tools ---

type ToolListResp struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Tools   []catalog.Tool `json:"tools"`
}

// ToolResp wraps a single tool.
type ToolResp struct {
	Success bool          `json:"success"`
	Tool    *catalog.Tool `json:"tool,omitempty"`
}

// --- GET /catalog/categories ---

type CategoriesResp struct {
	Success    bool                      `json:"success"`
	Categories map[string][]catalog.Tool `json:"categories"`
	Order      []string                  `json:"order"`
}

// --- POST /catalog/suggest ---

type SuggestReq struct {
	Query string `json:"query"`
}

type SuggestResp struct {
	Success    bool                `json:"success"`
	Suggestion *catalog.Suggestion `json:"suggestion,omitempty"`
}

// --- POST /catalog/reload ---

type ReloadResp struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// --- GET /catalog/location ---

type LocationResp struct {
	Success bool          `json:"success"`
	Tool    *catalog.Tool `json:"tool,omitempty"`
	Route   *route.Match  `json:"route,omitempty"`
}

type LocationParametersResp struct {
	Success    bool                                   `json:"success"`
	Parameters map[string]catalog.ParameterDescriptor `json:"parameters"`
}

// --- POST /catalog/tools/{name}/validate ---

type ValidateResp struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// --- GET /catalog/events ---

type CatalogEventResp struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Success   bool      `json:"success"`
	Cached    bool      `json:"cached"`
	Reason    string    `json:"reason,omitempty"`
	Query     string    `json:"query,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
	ToolCount int       `json:"tool_count"`
	LatencyMs float64   `json:"latency_ms"`
}

type EventListResp struct {
	Success  bool               `json:"success"`
	Events   []CatalogEventResp `json:"events"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

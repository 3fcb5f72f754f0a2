package storage

import "time"

// EventWriter is the interface for writing catalog events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *CatalogEvent)
	Close()
}

// Event kinds.
const (
	KindFetch     = "fetch"
	KindSuggest   = "suggest"
	KindFetchTool = "fetch_tool"
)

// CatalogEvent records the outcome of one backend interaction.
type CatalogEvent struct {
	EventID   string
	Timestamp time.Time
	Kind      string // KindFetch, KindSuggest, KindFetchTool
	Success   bool
	Cached    bool
	Reason    string // failure cause, empty on success
	Query     string
	ToolName  string
	ToolCount int32
	LatencyMs float32
}

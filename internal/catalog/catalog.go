package catalog

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/storage"
	"go.uber.org/zap"
)

const suggestRefreshTimeout = 5 * time.Second

// Observer receives catalog outcome counts. Implemented by the metrics package.
type Observer interface {
	ObserveFetch(success bool, toolCount int)
	ObserveSuggest(success, cached bool, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(bool, int) {}
func (nopObserver) ObserveSuggest(bool, bool, time.Duration) {}

// Catalog is the client-held list of tools known to the backend at the last
// successful fetch. It is either empty or exactly the backend's list; the
// sequence is swapped as a whole, never merged.
type Catalog struct {
	source      Source
	logger      *zap.Logger
	events      storage.EventWriter
	observer    Observer
	suggestions *SuggestionCache // nil when suggestion caching is disabled

	tools    atomic.Pointer[[]Tool]
	initOnce sync.Once
}

// Config configures the Catalog.
type Config struct {
	Source          Source
	Logger          *zap.Logger
	Events          storage.EventWriter // optional
	Observer        Observer            // optional
	SuggestCacheTTL time.Duration       // 0 disables suggestion caching
	SuggestCacheMax int                 // 0 selects DefaultSuggestionCacheSize
}

// New creates an empty Catalog. No I/O happens until Initialize is called.
func New(cfg Config) *Catalog {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	events := cfg.Events
	if events == nil {
		events = storage.NewLogWriter(logger)
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	c := &Catalog{
		source:   cfg.Source,
		logger:   logger,
		events:   events,
		observer: observer,
	}
	if cfg.SuggestCacheTTL > 0 {
		c.suggestions = NewSuggestionCache(cfg.SuggestCacheTTL, cfg.SuggestCacheMax)
	}
	empty := []Tool{}
	c.tools.Store(&empty)
	return c
}

// Initialize fetches the tool list once. Later calls are no-ops.
// Failures are logged and recorded; the catalog then stays empty.
func (c *Catalog) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		c.load(ctx)
	})
}

// Reload re-invokes the fetch. On failure the current sequence is kept.
func (c *Catalog) Reload(ctx context.Context) {
	c.load(ctx)
}

func (c *Catalog) load(ctx context.Context) {
	start := time.Now()

	tools, err := c.source.ListTools(ctx)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("tool catalog fetch failed", zap.Error(err))
		c.observer.ObserveFetch(false, 0)
		c.record(storage.CatalogEvent{Kind: storage.KindFetch, Reason: err.Error()}, latency)
		return
	}
	if tools == nil {
		tools = []Tool{}
	}

	c.tools.Store(&tools)
	c.observer.ObserveFetch(true, len(tools))
	c.record(storage.CatalogEvent{Kind: storage.KindFetch, Success: true, ToolCount: int32(len(tools))}, latency)
	c.logger.Info("tool catalog loaded", zap.Int("tool_count", len(tools)))
}

// ListAll returns the current tool sequence. Callers must not modify it.
func (c *Catalog) ListAll() []Tool {
	return *c.tools.Load()
}

// FindByName returns the first tool whose name matches case-insensitively.
func (c *Catalog) FindByName(name string) (Tool, bool) {
	for _, t := range c.ListAll() {
		if strings.EqualFold(t.ToolName, name) {
			return t, true
		}
	}
	return Tool{}, false
}

// Suggest asks the backend for its best tool for the query. It returns false
// when the backend fails or has nothing to offer; no local fallback is made.
func (c *Catalog) Suggest(ctx context.Context, query string) (Suggestion, bool) {
	start := time.Now()

	if c.suggestions != nil {
		cached := c.suggestions.Get(query)
		if cached.Hit {
			if cached.NeedsRefresh {
				go c.refreshSuggestion(query)
			}
			latency := time.Since(start)
			c.observer.ObserveSuggest(true, true, latency)
			c.record(storage.CatalogEvent{
				Kind:     storage.KindSuggest,
				Success:  true,
				Cached:   true,
				Query:    query,
				ToolName: cached.Suggestion.ToolName,
			}, latency)
			return cached.Suggestion, true
		}
	}

	s, err := c.source.SuggestTool(ctx, query)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("tool suggestion failed",
			zap.String("query", query),
			zap.Error(err),
		)
		c.observer.ObserveSuggest(false, false, latency)
		c.record(storage.CatalogEvent{Kind: storage.KindSuggest, Reason: err.Error(), Query: query}, latency)
		return Suggestion{}, false
	}

	if c.suggestions != nil {
		c.suggestions.Set(query, s)
	}
	c.observer.ObserveSuggest(true, false, latency)
	c.record(storage.CatalogEvent{Kind: storage.KindSuggest, Success: true, Query: query, ToolName: s.ToolName}, latency)
	return s, true
}

func (c *Catalog) refreshSuggestion(query string) {
	ctx, cancel := context.WithTimeout(context.Background(), suggestRefreshTimeout)
	defer cancel()

	s, err := c.source.SuggestTool(ctx, query)
	if err != nil {
		c.logger.Warn("background suggestion refresh failed",
			zap.String("query", query),
			zap.Error(err),
		)
		c.suggestions.Delete(query)
		return
	}
	c.suggestions.Set(query, s)
}

// FetchTool reads a single tool straight from the backend. It never changes
// the catalog's sequence.
func (c *Catalog) FetchTool(ctx context.Context, name string) (Tool, bool) {
	start := time.Now()

	t, err := c.source.GetTool(ctx, name)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("tool fetch failed",
			zap.String("tool_name", name),
			zap.Error(err),
		)
		c.record(storage.CatalogEvent{Kind: storage.KindFetchTool, Reason: err.Error(), ToolName: name}, latency)
		return Tool{}, false
	}
	c.record(storage.CatalogEvent{Kind: storage.KindFetchTool, Success: true, ToolName: t.ToolName, ToolCount: 1}, latency)
	return t, true
}

// record stamps and writes an event. The writer never blocks.
func (c *Catalog) record(e storage.CatalogEvent, latency time.Duration) {
	e.EventID = uuid.New().String()
	e.Timestamp = time.Now()
	e.LatencyMs = float32(float64(latency) / float64(time.Millisecond))
	c.events.Write(&e)
}

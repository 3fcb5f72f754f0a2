package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPSource(HTTPSourceConfig{BaseURL: srv.URL})
}

func TestHTTPSource_ListTools(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tools" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"count":2,"tools":[
			{"tool_name":"FastQC","description":"Quality control tool"},
			{"tool_name":"BWA","description":"Sequence alignment tool"}
		]}`))
	})

	tools, err := src.ListTools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 || tools[0].ToolName != "FastQC" || tools[1].ToolName != "BWA" {
		t.Fatalf("unexpected tools: %v", toolNames(tools))
	}
}

func TestHTTPSource_ListToolsBackendFailure(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"tool_library.json missing"}`))
	})

	_, err := src.ListTools(context.Background())
	if !errors.Is(err, ErrBackendFailure) {
		t.Fatalf("expected ErrBackendFailure, got %v", err)
	}
}

func TestHTTPSource_ListToolsMalformed(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := src.ListTools(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestHTTPSource_ListToolsTolerantOfOffTypeFields(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"tools":[
			{"tool_name":"FastQC","parameters":[
				{"name":"input","type":"file","required":"yes","extensions":".fq","multiple":1}
			]},
			"not a tool",
			{"tool_name":"BWA","description":"Sequence alignment tool"}
		]}`))
	}))
	t.Cleanup(srv.Close)
	src := NewHTTPSource(HTTPSourceConfig{BaseURL: srv.URL, Logger: zap.New(core)})

	tools, err := src.ListTools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 || tools[0].ToolName != "FastQC" || tools[1].ToolName != "BWA" {
		t.Fatalf("expected FastQC and BWA, got %v", toolNames(tools))
	}

	p := tools[0].Parameters[0]
	if !p.Required || !p.Multiple {
		t.Fatalf("expected required and multiple, got %+v", p)
	}
	if len(p.Extensions) != 1 || p.Extensions[0] != ".fq" {
		t.Fatalf("expected [.fq], got %v", p.Extensions)
	}
	if logs.FilterMessage("skipping malformed tool entry").Len() != 1 {
		t.Fatalf("expected one skipped entry logged, got %v", logs.All())
	}
}

func TestHTTPSource_ListToolsMissingToolsField(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	tools, err := src.ListTools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tools == nil || len(tools) != 0 {
		t.Fatalf("expected empty list, got %v", tools)
	}
}

func TestHTTPSource_ListToolsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewHTTPSource(HTTPSourceConfig{BaseURL: url})
	if _, err := src.ListTools(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestHTTPSource_SuggestTool(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tools/suggest" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["query"] != "align short reads" || len(body) != 1 {
			t.Errorf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"success":true,"suggestion":{"tool_name":"BWA"}}`))
	})

	s, err := src.SuggestTool(context.Background(), "align short reads")
	if err != nil {
		t.Fatal(err)
	}
	if s.ToolName != "BWA" {
		t.Fatalf("expected BWA, got %s", s.ToolName)
	}
}

func TestHTTPSource_SuggestToolFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"success false", http.StatusOK, `{"success":false}`, ErrBackendFailure},
		{"empty query rejected", http.StatusBadRequest, `{"success":false,"error":"Query is required"}`, ErrBackendFailure},
		{"null suggestion", http.StatusOK, `{"success":true,"suggestion":null}`, ErrNoSuggestion},
		{"not json", http.StatusBadGateway, `oops`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := src.SuggestTool(context.Background(), "q")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTPSource_GetTool(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tools/BWA-MEM":
			_, _ = w.Write([]byte(`{"success":true,"tool":{"tool_name":"BWA-MEM"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"Tool not found"}`))
		}
	})

	tool, err := src.GetTool(context.Background(), "BWA-MEM")
	if err != nil {
		t.Fatal(err)
	}
	if tool.ToolName != "BWA-MEM" {
		t.Fatalf("expected BWA-MEM, got %s", tool.ToolName)
	}

	if _, err := src.GetTool(context.Background(), "missing"); !errors.Is(err, ErrBackendFailure) {
		t.Fatalf("expected ErrBackendFailure, got %v", err)
	}
}

// A backend that reports failure on load leaves the catalog empty.
func TestCatalog_WithHTTPSourceBackendFailure(t *testing.T) {
	src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})
	c, _ := newTestCatalog(t, src)

	c.Initialize(context.Background())

	if got := c.ListAll(); len(got) != 0 {
		t.Fatalf("expected [], got %v", toolNames(got))
	}
}

func TestCatalog_WithHTTPSourceSuggest(t *testing.T) {
	var failing atomic.Bool
	src := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		if !failing.Load() {
			_, _ = w.Write([]byte(`{"success":true,"suggestion":{"tool_name":"BWA"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false}`))
	})
	c, _ := newTestCatalog(t, src)

	s, ok := c.Suggest(context.Background(), "align short reads")
	if !ok || s.ToolName != "BWA" {
		t.Fatalf("expected BWA, got %+v (ok=%v)", s, ok)
	}
	raw, _ := json.Marshal(s)
	if string(raw) != `{"tool_name":"BWA"}` {
		t.Fatalf("expected backend suggestion unchanged, got %s", raw)
	}

	failing.Store(true)
	if _, ok := c.Suggest(context.Background(), "align short reads"); ok {
		t.Fatal("expected absent suggestion on success=false")
	}
}

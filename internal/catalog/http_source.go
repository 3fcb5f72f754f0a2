package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 32 << 20

// HTTPClient executes HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource talks to the backend's /api/tools endpoints.
type HTTPSource struct {
	baseURL string
	client  HTTPClient
	logger  *zap.Logger
}

// HTTPSourceConfig configures the HTTPSource.
type HTTPSourceConfig struct {
	BaseURL string        // e.g. "http://localhost:5000"; "" means same-origin relative paths
	Timeout time.Duration // 0 leaves the transport default in place
	Client  HTTPClient    // optional; overrides Timeout
	Logger  *zap.Logger   // optional; reports skipped list entries
}

// NewHTTPSource creates a new HTTPSource.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

type listToolsResponse struct {
	Success bool              `json:"success"`
	Tools   []json.RawMessage `json:"tools"`
	Error   string            `json:"error"`
}

type getToolResponse struct {
	Success bool   `json:"success"`
	Tool    *Tool  `json:"tool"`
	Error   string `json:"error"`
}

type suggestRequest struct {
	Query string `json:"query"`
}

type suggestResponse struct {
	Success    bool        `json:"success"`
	Suggestion *Suggestion `json:"suggestion"`
	Error      string      `json:"error"`
}

// ListTools fetches the tool library. Entries that are not JSON objects are
// skipped with a warning; the rest are kept in backend order.
func (s *HTTPSource) ListTools(ctx context.Context) ([]Tool, error) {
	var resp listToolsResponse
	if err := s.do(ctx, http.MethodGet, "/api/tools", nil, &resp); err != nil {
		return nil, fmt.Errorf("ListTools: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("ListTools: %w", backendError(resp.Error))
	}

	tools := make([]Tool, 0, len(resp.Tools))
	for i, raw := range resp.Tools {
		var t Tool
		if err := json.Unmarshal(raw, &t); err != nil {
			s.logger.Warn("skipping malformed tool entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func (s *HTTPSource) SuggestTool(ctx context.Context, query string) (Suggestion, error) {
	var resp suggestResponse
	if err := s.do(ctx, http.MethodPost, "/api/tools/suggest", suggestRequest{Query: query}, &resp); err != nil {
		return Suggestion{}, fmt.Errorf("SuggestTool: %w", err)
	}
	if !resp.Success {
		return Suggestion{}, fmt.Errorf("SuggestTool: %w", backendError(resp.Error))
	}
	if resp.Suggestion == nil {
		return Suggestion{}, fmt.Errorf("SuggestTool: %w", ErrNoSuggestion)
	}
	return *resp.Suggestion, nil
}

func (s *HTTPSource) GetTool(ctx context.Context, name string) (Tool, error) {
	var resp getToolResponse
	if err := s.do(ctx, http.MethodGet, "/api/tools/"+url.PathEscape(name), nil, &resp); err != nil {
		return Tool{}, fmt.Errorf("GetTool: %w", err)
	}
	if !resp.Success || resp.Tool == nil {
		return Tool{}, fmt.Errorf("GetTool: %w", backendError(resp.Error))
	}
	return *resp.Tool, nil
}

// do sends a request and decodes the JSON envelope. The envelope's success
// flag decides the outcome, so non-2xx bodies are still decoded.
func (s *HTTPSource) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err)
	}
	return nil
}

func backendError(msg string) error {
	if msg == "" {
		return ErrBackendFailure
	}
	return fmt.Errorf("%w: %s", ErrBackendFailure, msg)
}

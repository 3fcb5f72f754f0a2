package catalog

import (
	"context"
	"errors"
)

// Source provides tool metadata from the backend.
type Source interface {
	// ListTools returns the backend's full tool list in backend order.
	ListTools(ctx context.Context) ([]Tool, error)

	// SuggestTool asks the backend for its best tool match for a free-text query.
	SuggestTool(ctx context.Context, query string) (Suggestion, error)

	// GetTool fetches a single tool by name.
	GetTool(ctx context.Context, name string) (Tool, error)
}

var (
	// ErrBackendFailure is returned when the backend answers with success=false.
	ErrBackendFailure = errors.New("backend reported failure")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrNoSuggestion is returned when the backend succeeds but sends no suggestion.
	ErrNoSuggestion = errors.New("backend returned no suggestion")
)

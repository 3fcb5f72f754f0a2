package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/route"
	"go.uber.org/zap"
)

func (d *Dependencies) handleListTools(w http.ResponseWriter, _ *http.Request) {
	tools := d.Catalog.ListAll()
	writeJSON(w, http.StatusOK, ToolListResp{Success: true, Count: len(tools), Tools: tools})
}

func (d *Dependencies) handleGetTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := d.Catalog.FindByName(r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("Tool not found"))
		return
	}
	writeJSON(w, http.StatusOK, ToolResp{Success: true, Tool: &tool})
}

func (d *Dependencies) handleCategories(w http.ResponseWriter, _ *http.Request) {
	categories := d.Catalog.Categories()

	order := make([]string, 0, len(categories))
	for _, label := range catalog.CategoryOrder {
		if _, ok := categories[label]; ok {
			order = append(order, label)
		}
	}
	writeJSON(w, http.StatusOK, CategoriesResp{Success: true, Categories: categories, Order: order})
}

func (d *Dependencies) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestReq
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("Query is required"))
		return
	}
	if d.SuggestLimiter != nil && !d.SuggestLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResp("Too many suggestion requests"))
		return
	}

	suggestion, ok := d.Catalog.Suggest(r.Context(), req.Query)
	if !ok {
		writeJSON(w, http.StatusOK, SuggestResp{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, SuggestResp{Success: true, Suggestion: &suggestion})
}

func (d *Dependencies) handleReload(w http.ResponseWriter, r *http.Request) {
	d.Catalog.Reload(r.Context())
	writeJSON(w, http.StatusOK, ReloadResp{Success: true, Count: len(d.Catalog.ListAll())})
}

func (d *Dependencies) handleLocation(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	resp := LocationResp{}
	if m, ok := route.Default.Match(path); ok {
		resp.Route = &m
	}
	if tool, ok := d.Catalog.CurrentToolFromLocation(path); ok {
		resp.Success = true
		resp.Tool = &tool
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleLocationParameters(w http.ResponseWriter, r *http.Request) {
	params := d.Catalog.CurrentToolParameters(r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, LocationParametersResp{Success: true, Parameters: params})
}

func (d *Dependencies) handleValidate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// Tools added to the backend after the last fetch are read through.
	tool, ok := d.Catalog.FindByName(name)
	if !ok {
		tool, ok = d.Catalog.FetchTool(r.Context(), name)
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("Tool not found"))
		return
	}

	var args map[string]any
	if err := readJSON(w, r, &args); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid JSON body"))
		return
	}

	err := catalog.ValidateArguments(tool, args)
	if err == nil {
		writeJSON(w, http.StatusOK, ValidateResp{Success: true, Errors: []string{}})
		return
	}

	var verr *catalog.ValidationError
	if !errors.As(err, &verr) {
		d.Logger.Error("failed to validate arguments",
			zap.String("tool_name", tool.ToolName),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to validate arguments"))
		return
	}
	writeJSON(w, http.StatusOK, ValidateResp{Success: false, Errors: verr.Problems})
}

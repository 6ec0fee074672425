package http

import (
	"net/http"
	"strconv"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

type ExecutionHandler struct {
	service domain.ExecutionService
	logger  logger.Logger
}

func NewExecutionHandler(service domain.ExecutionService, logger logger.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ExecutionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/executions.execute", h.handleExecute)
	mux.HandleFunc("/api/executions.get", h.handleGet)
	mux.HandleFunc("/api/executions.list", h.handleList)
	mux.HandleFunc("/api/executions.estimate", h.handleEstimate)
}

func (h *ExecutionHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.ExecuteToolRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	execution, err := h.service.Execute(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to execute tool")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"execution": execution,
	})
}

func (h *ExecutionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	execution, err := h.service.Get(r.Context(), user.ID, r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get execution")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"execution": execution,
	})
}

func (h *ExecutionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := &domain.ListExecutionsRequest{ToolID: r.URL.Query().Get("tool_id")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			WriteJSONError(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}

	executions, err := h.service.List(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list executions")
		return
	}
	if executions == nil {
		executions = []*domain.ToolExecution{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"executions": executions,
	})
}

func (h *ExecutionHandler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	estimate, err := h.service.Estimate(r.Context(), user.ID, r.URL.Query().Get("tool_id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to estimate duration")
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

package http

import (
	"net/http"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

type ToolHandler struct {
	service domain.ToolService
	logger  logger.Logger
}

func NewToolHandler(service domain.ToolService, logger logger.Logger) *ToolHandler {
	return &ToolHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ToolHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tools.list", h.handleList)
	mux.HandleFunc("/api/tools.get", h.handleGet)
}

func (h *ToolHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	tools, err := h.service.List(r.Context(), domain.ListToolsRequest{Category: r.URL.Query().Get("category")})
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list tools")
		return
	}
	if tools == nil {
		tools = []*domain.Tool{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": tools,
	})
}

func (h *ToolHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	tool, err := h.service.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get tool")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tool":           tool,
		"initial_values": tool.InitialFormValues(),
	})
}

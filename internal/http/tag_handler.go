package http

import (
	"net/http"
	"strings"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

type TagHandler struct {
	service domain.TagService
	logger  logger.Logger
}

func NewTagHandler(service domain.TagService, logger logger.Logger) *TagHandler {
	return &TagHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TagHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tags.list", h.handleList)
	mux.HandleFunc("/api/tags.create", h.handleCreate)
	mux.HandleFunc("/api/tags.suggest", h.handleSuggest)
}

func (h *TagHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tags, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tags": tags,
	})
}

func (h *TagHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.service.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create tag")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tag": tag,
	})
}

func (h *TagHandler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var selected []string
	if exclude := r.URL.Query().Get("exclude"); exclude != "" {
		selected = domain.NormalizeTags(strings.Split(exclude, ","))
	}

	suggestions, err := h.service.Suggest(r.Context(), user.ID, r.URL.Query().Get("q"), selected)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to suggest tags")
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

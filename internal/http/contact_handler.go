package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/importer"
	"github.com/aihubhq/aihub/pkg/logger"
)

// maxUploadSize leaves room for the multipart envelope around the file
const maxUploadSize = importer.MaxFileSize + 1<<20

type ContactHandler struct {
	service domain.ContactService
	logger  logger.Logger
	now     func() time.Time
}

func NewContactHandler(service domain.ContactService, logger logger.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/contacts.list", h.handleList)
	mux.HandleFunc("/api/contacts.create", h.handleCreate)
	mux.HandleFunc("/api/contacts.import", h.handleImport)
	mux.HandleFunc("/api/contacts.addFromExecution", h.handleAddFromExecution)
	mux.HandleFunc("/api/contacts.ingest", h.handleIngest)
	mux.HandleFunc("/api/contacts.updateTags", h.handleUpdateTags)
	mux.HandleFunc("/api/contacts.commonTags", h.handleCommonTags)
	mux.HandleFunc("/api/contacts.updateStatus", h.handleUpdateStatus)
	mux.HandleFunc("/api/contacts.delete", h.handleDelete)
	mux.HandleFunc("/api/contacts.export", h.handleExport)
	mux.HandleFunc("/api/contacts.stats", h.handleStats)
}

func (h *ContactHandler) queryFromRequest(r *http.Request, userID string) domain.ContactQuery {
	query := domain.DefaultContactQuery(userID)
	query.FromQueryParams(r.URL.Query())
	return query
}

func (h *ContactHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.service.List(r.Context(), h.queryFromRequest(r, user.ID))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list contacts")
		return
	}
	if contacts == nil {
		contacts = []*domain.Contact{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
	})
}

func (h *ContactHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.service.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create contact")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"contact": contact,
	})
}

// handleImport takes a multipart "file", optional "tags" (comma separated or a JSON
// array) and "preview=true" to only return the first normalized rows
func (h *ContactHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, fmt.Sprintf("The file is too large. The maximum size is %dMB.", importer.MaxFileSize>>20), http.StatusBadRequest)
			return
		}
		WriteJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteJSONError(w, "Please select a file to import.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	upload := domain.ImportFile{Filename: header.Filename, Content: file}

	if r.FormValue("preview") == "true" {
		preview, err := h.service.PreviewFile(r.Context(), upload)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to preview file")
			return
		}
		writeJSON(w, http.StatusOK, preview)
		return
	}

	tags, err := parseTagsField(r.FormValue("tags"))
	if err != nil {
		WriteJSONError(w, "Invalid tags", http.StatusBadRequest)
		return
	}

	result, err := h.service.ImportFile(r.Context(), user.ID, upload, tags)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to import contacts")
		return
	}
	writeIngestionResult(w, result)
}

func parseTagsField(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, err
		}
		return domain.NormalizeTags(tags), nil
	}
	return domain.NormalizeTags(strings.Split(raw, ",")), nil
}

// writeIngestionResult answers 500 when the batch was rejected by storage
func writeIngestionResult(w http.ResponseWriter, result *domain.IngestionResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (h *ContactHandler) handleAddFromExecution(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.AddFromExecutionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.AddFromExecution(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to add contacts")
		return
	}
	writeIngestionResult(w, result)
}

func (h *ContactHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.IngestContactsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Records == nil {
		WriteJSONError(w, "records is required", http.StatusBadRequest)
		return
	}

	writeIngestionResult(w, h.service.IngestRecords(r.Context(), user.ID, req.Records, req.Tags))
}

func (h *ContactHandler) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.UpdateContactTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateTags(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update tags")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": updated,
	})
}

func (h *ContactHandler) handleCommonTags(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.ContactIDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tags, err := h.service.CommonTags(r.Context(), user.ID, req.ContactIDs)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get tags")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tags": tags,
	})
}

func (h *ContactHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.UpdateContactStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateStatus(r.Context(), user.ID, &req); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *ContactHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.ContactIDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.service.Delete(r.Context(), user.ID, req.ContactIDs)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete contacts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}

func (h *ContactHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	// buffered so a listing failure can still be answered with a JSON error
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), h.queryFromRequest(r, user.ID), &buf); err != nil {
		writeServiceError(w, h.logger, err, "Failed to export contacts")
		return
	}

	filename := fmt.Sprintf("contacts_%s.csv", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ContactHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get contact stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

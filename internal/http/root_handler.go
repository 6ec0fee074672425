package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aihubhq/aihub/pkg/logger"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RootHandler answers the health check and unknown paths
type RootHandler struct {
	db        Pinger
	logger    logger.Logger
	version   string
	startTime time.Time
}

func NewRootHandler(db Pinger, logger logger.Logger, version string) *RootHandler {
	return &RootHandler{
		db:        db,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/", h.handleNotFound)
}

func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := healthResponse{
		Status:   "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Database: "ok",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithField("error", err.Error()).Error("Health check failed")
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func (h *RootHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, "Not found", http.StatusNotFound)
}

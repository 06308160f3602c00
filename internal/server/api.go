package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/desertthunder/vibecast/internal/tasks"
)

// PlaylistLister returns the caller's raw playlist collection.
type PlaylistLister interface {
	UserPlaylists(ctx context.Context, token string) (json.RawMessage, error)
}

// APIHandler serves the bearer-authenticated playlist routes.
type APIHandler struct {
	playlists PlaylistLister
	analyzer  tasks.Analyzer
	logger    *log.Logger
}

func NewAPIHandler(playlists PlaylistLister, analyzer tasks.Analyzer, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &APIHandler{
		playlists: playlists,
		analyzer:  analyzer,
		logger:    shared.WithLogger(logger, "handler", "api"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"GET /api/playlists", "GET /api/playlist/{id}"}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if id := r.PathValue("id"); id != "" {
		h.analyze(w, r, id, token)
		return
	}
	h.listPlaylists(w, r, token)
}

func (h *APIHandler) listPlaylists(w http.ResponseWriter, r *http.Request, token string) {
	raw, err := h.playlists.UserPlaylists(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *APIHandler) analyze(w http.ResponseWriter, r *http.Request, playlistID, token string) {
	profile, err := h.analyzer.Analyze(r.Context(), playlistID, token, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kv := []any{"error", err, "kind", shared.Kind(err), "request_id", RequestID(r.Context())}
	if tasks.IsClientError(err) {
		h.logger.Info("request rejected", kv...)
	} else {
		h.logger.Error("request failed", kv...)
	}
	writeError(w, err)
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

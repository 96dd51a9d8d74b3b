package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/syncroom/pkg/hostapi"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.InfoContext(r.Context(), "failed to write response", "error", err)
	}
}

// getVideos answers GET /api/{host}?id= with the videos the host knows for id.
func (c controller) getVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	host := chi.URLParam(r, "host")

	id := r.URL.Query().Get("id")
	if id == "" {
		c.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Provide video link or id"})
		return
	}

	videos, err := c.hostAPI.Lookup(ctx, host, id)
	if err != nil {
		var statusErr *hostapi.StatusError
		switch {
		case errors.Is(err, hostapi.ErrUnsupportedHost):
			c.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "Unsupported video host"})
		case errors.Is(err, hostapi.ErrNotFound):
			c.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "No videos found"})
		case errors.Is(err, hostapi.ErrConfiguration):
			c.logger.ErrorContext(ctx, "lookup is not configured", "host", host)
			c.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Unknown server error"})
		case errors.As(err, &statusErr):
			c.logger.WarnContext(ctx, "lookup failed", "host", host, "status", statusErr.Status, "body", statusErr.Body)
			c.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Unknown server error"})
		default:
			c.logger.WarnContext(ctx, "lookup failed", "host", host, "error", err)
			c.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Unknown server error"})
		}
		return
	}

	c.writeJSON(w, r, http.StatusOK, videos)
}

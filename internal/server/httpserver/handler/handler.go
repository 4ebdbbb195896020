// Package handler provides HTTP request handlers for the ops server.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ReadyCheck reports whether one dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// Config holds the handler dependencies.
type Config struct {
	Logger *slog.Logger

	// Checks run on GET /readyz, keyed by name.
	Checks map[string]ReadyCheck

	// CheckTimeout bounds each readiness check (default: 2s).
	CheckTimeout time.Duration

	DriftLimit      time.Duration
	RegistrationTTL time.Duration
}

// Handler serves the ops endpoints.
type Handler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}
	return &Handler{cfg: cfg, logger: cfg.Logger}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(w, r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(w, r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID reads the id the RequestID middleware stamped on the response.
func getRequestID(w http.ResponseWriter, r *http.Request) string {
	if reqID := w.Header().Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

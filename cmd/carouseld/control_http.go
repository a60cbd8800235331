package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/victorgvargas/carousel/internal/protocol"
)

// ============================================================================
// HTTP control endpoints
// ============================================================================
// The same commands as the IPC socket, for clients that can only speak HTTP:
//   POST /api/command   body: {"type": "navigate", "data": {"index": 2}}
//   GET  /api/state
// Responses are protocol.Response bodies.
// ============================================================================

const maxCommandBody = 4 << 10

// registerControl mounts the control endpoints on mux.
func registerControl(ctx context.Context, mux *http.ServeMux, events chan<- Event, replyTimeout time.Duration, logger *slog.Logger) {
	mux.HandleFunc("/api/command", handleCommand(ctx, events, replyTimeout, logger))
	mux.HandleFunc("/api/state", handleState(ctx, events, replyTimeout, logger))
	logger.Info("HTTP control enabled", "endpoints", []string{"/api/command", "/api/state"})
}

func handleCommand(ctx context.Context, events chan<- Event, replyTimeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("HTTP control request", "method", r.Method, "path", r.URL.Path)

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeResponse(w, http.StatusMethodNotAllowed, protocol.Response{Status: "error", Error: "method not allowed"}, logger)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeResponse(w, http.StatusRequestEntityTooLarge, protocol.Response{Status: "error", Error: "request body too large"}, logger)
				return
			}
			logger.Warn("HTTP control body read failed", "remote_addr", r.RemoteAddr, "error", err)
			writeResponse(w, http.StatusBadRequest, protocol.Response{Status: "error", Error: fmt.Sprintf("read request body: %v", err)}, logger)
			return
		}

		resp := submitCommand(ctx, body, events, replyTimeout)
		writeResponse(w, statusFor(resp), resp, logger)
	}
}

func handleState(ctx context.Context, events chan<- Event, replyTimeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	req, _ := protocol.MarshalCommand(protocol.StateRequest{})

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeResponse(w, http.StatusMethodNotAllowed, protocol.Response{Status: "error", Error: "method not allowed"}, logger)
			return
		}
		resp := submitCommand(ctx, req, events, replyTimeout)
		writeResponse(w, statusFor(resp), resp, logger)
	}
}

// statusFor maps a daemon response onto an HTTP status. Rejected commands are
// the client's fault; a busy or stopping daemon is not.
func statusFor(resp protocol.Response) int {
	if resp.Status == "ok" {
		return http.StatusOK
	}
	switch resp.Error {
	case "event queue full", "timed out waiting for daemon", "daemon shutting down":
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeResponse(w http.ResponseWriter, code int, resp protocol.Response, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("HTTP control write failed", "error", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/victorgvargas/carousel/internal/protocol"
)

func newControlServer(t *testing.T, events chan<- Event) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	registerControl(context.Background(), mux, events, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeResponse(t *testing.T, res *http.Response) protocol.Response {
	t.Helper()
	defer res.Body.Close()
	var resp protocol.Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestControlHTTP_Navigate(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	go serveEvents(ctx, d, events)

	srv := newControlServer(t, events)

	res, err := http.Post(srv.URL+"/api/command", "application/json", strings.NewReader(`{"type":"navigate","data":{"index":2}}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	resp := decodeResponse(t, res)
	if resp.State == nil || resp.State.DesiredIndex != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}

	res, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp = decodeResponse(t, res)
	if resp.Status != "ok" || resp.State.DesiredIndex != 2 {
		t.Fatalf("state not visible over HTTP: %+v", resp)
	}
}

func TestControlHTTP_Errors(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	go serveEvents(ctx, d, events)

	srv := newControlServer(t, events)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"out of range", http.MethodPost, "/api/command", `{"type":"navigate","data":{"index":9}}`, http.StatusBadRequest},
		{"unknown command", http.MethodPost, "/api/command", `{"type":"warp"}`, http.StatusBadRequest},
		{"command via GET", http.MethodGet, "/api/command", "", http.StatusMethodNotAllowed},
		{"state via POST", http.MethodPost, "/api/state", "", http.StatusMethodNotAllowed},
		{"oversized body", http.MethodPost, "/api/command", strings.Repeat("x", maxCommandBody+1), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if res.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.want)
			}
			if resp := decodeResponse(t, res); resp.Status != "error" {
				t.Errorf("status field = %q, want error", resp.Status)
			}
		})
	}
}

func TestControlHTTP_Busy(t *testing.T) {
	srv := newControlServer(t, make(chan Event)) // nobody reading

	res, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", res.StatusCode)
	}
	res.Body.Close()
}

func TestControlHTTP_BodyReadFailure(t *testing.T) {
	mux := http.NewServeMux()
	registerControl(context.Background(), mux, make(chan Event), time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/command", iotest.ErrReader(errors.New("connection reset")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec.Result())
	if resp.Status != "error" || !strings.Contains(resp.Error, "connection reset") {
		t.Errorf("response = %+v", resp)
	}
}

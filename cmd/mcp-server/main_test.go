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

	"computer-mcp/internal/computer"
	"computer-mcp/internal/mcp"
)

type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, req computer.Request) (computer.Response, error) {
	if req.Action == computer.ActionMouseMove {
		return nil, errors.New("coordinate out of bounds")
	}
	return computer.Response{computer.TextBlock("ok")}, nil
}

type stubDisplay struct {
	err error
}

func (d stubDisplay) DisplaySize(context.Context) (int, int, error) {
	return 1920, 1080, d.err
}

func newTestHandler(t *testing.T, display displaySizer) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := mcp.NewServer(mcp.ServerInfo{Name: "computer-mcp", Version: "test"}, stubExecutor{}, mcp.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	s := &HTTPServer{server: server, display: display, logger: logger}
	return s.routes(http.NotFoundHandler())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRPCEndpoint(t *testing.T) {
	h := newTestHandler(t, stubDisplay{})

	rec := do(t, h, http.MethodPost, "/rpc", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"result":{}`) {
		t.Errorf("ping = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/rpc", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if rec.Code != http.StatusAccepted || rec.Body.Len() != 0 {
		t.Errorf("notification = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCallEndpoint(t *testing.T) {
	h := newTestHandler(t, stubDisplay{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"success", `{"name":"computer","arguments":{"action":"left_click"}}`, http.StatusOK, `"text":"ok"`},
		{"tool error", `{"name":"computer","arguments":{"action":"mouse_move","coordinate":[1,1]}}`, http.StatusOK, `"isError":true`},
		{"schema violation", `{"name":"computer","arguments":{"action":"fly"}}`, http.StatusBadRequest, `-32602`},
		{"unknown tool", `{"name":"bash","arguments":{}}`, http.StatusNotFound, `Unknown tool`},
		{"bad json", `{`, http.StatusBadRequest, `Invalid JSON`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/call", tt.body)
			if rec.Code != tt.wantStatus || !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestToolsAndHealth(t *testing.T) {
	h := newTestHandler(t, stubDisplay{})

	rec := do(t, h, http.MethodGet, "/tools", "")
	var tools struct {
		Tools []mcp.Tool `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tools); err != nil || len(tools.Tools) != 1 {
		t.Fatalf("tools = %s (%v)", rec.Body.String(), err)
	}

	rec = do(t, h, http.MethodGet, "/health", "")
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "healthy" || health["display_width_px"] != float64(1920) {
		t.Errorf("health = %v", health)
	}

	degraded := newTestHandler(t, stubDisplay{err: errors.New("cannot open display")})
	rec = do(t, degraded, http.MethodGet, "/health", "")
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("health = %s", rec.Body.String())
	}
}

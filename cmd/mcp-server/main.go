package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"computer-mcp/internal/app"
	"computer-mcp/internal/mcp"
)

const maxBodySize = 16 << 20

// displaySizer reports the current screen resolution for /health.
type displaySizer interface {
	DisplaySize(ctx context.Context) (int, int, error)
}

type HTTPServer struct {
	server  *mcp.Server
	display displaySizer
	logger  *slog.Logger
}

func main() {
	configPath := flag.String("config", "", "path to computer.toml")
	flag.Parse()

	a, err := app.New(*configPath, prometheus.DefaultRegisterer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start computer tool: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.WatchConfig(ctx)

	s := &HTTPServer{server: a.Server, display: a.Desktop, logger: a.Logger}
	addr := a.Config().Server.HTTPAddr
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http shutdown failed", "error", err)
		}
	}()

	a.Logger.Info("MCP HTTP server starting", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *HTTPServer) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("POST /call", s.handleToolCall)
	mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

// handleRPC accepts one raw JSON-RPC message. Notifications get 202.
func (s *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.sendError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	resp := s.server.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func (s *HTTPServer) handleTools(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{"tools": s.server.Tools()})
}

func (s *HTTPServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	var req mcp.CallToolParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, rpcErr := s.server.CallTool(r.Context(), req.Name, req.Arguments)
	if rpcErr != nil {
		status := http.StatusBadRequest
		if req.Name != mcp.ToolName {
			status = http.StatusNotFound
		}
		s.sendJSON(w, status, map[string]any{"error": rpcErr})
		return
	}
	s.sendJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "healthy",
		"tools":  len(s.server.Tools()),
	}

	width, height, err := s.display.DisplaySize(r.Context())
	if err != nil {
		status["status"] = "degraded"
		status["display_error"] = err.Error()
	} else {
		status["display_width_px"] = width
		status["display_height_px"] = height
	}
	s.sendJSON(w, http.StatusOK, status)
}

func (s *HTTPServer) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *HTTPServer) sendError(w http.ResponseWriter, code int, message string) {
	s.sendJSON(w, code, map[string]any{
		"error": mcp.Error{Code: code, Message: message},
	})
}

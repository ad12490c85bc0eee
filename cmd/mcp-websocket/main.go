package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"computer-mcp/internal/app"
	"computer-mcp/internal/mcp"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	maxMessageSize     = 16 << 20
)

type InteractiveServer struct {
	server *mcp.Server
	logger *slog.Logger

	sessions      map[string]*Session
	sessionsMutex sync.RWMutex
	upgrader      websocket.Upgrader
}

// Session is one WebSocket client. Messages on a session are handled in
// arrival order so device actions never interleave.
type Session struct {
	ID           string
	WebSocket    *websocket.Conn
	Context      context.Context
	Cancel       context.CancelFunc
	CreatedAt    time.Time
	lastActivity time.Time
	mu           sync.Mutex
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
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

	server := NewInteractiveServer(a.Server, a.Logger)
	go server.sessionCleanup(ctx, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.handleWebSocket)
	mux.HandleFunc("/health", server.handleHealth)

	addr := a.Config().Server.WSAddr
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		server.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	a.Logger.Info("MCP WebSocket server starting", "addr", addr, "endpoint", "/ws")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error("websocket server stopped", "error", err)
		os.Exit(1)
	}
}

func NewInteractiveServer(server *mcp.Server, logger *slog.Logger) *InteractiveServer {
	return &InteractiveServer{
		server:   server,
		logger:   logger,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *InteractiveServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:           uuid.NewString(),
		WebSocket:    conn,
		Context:      ctx,
		Cancel:       cancel,
		CreatedAt:    time.Now(),
		lastActivity: time.Now(),
	}
	s.addSession(session)
	defer s.removeSession(session.ID)

	s.logger.Info("session opened", "session", session.ID, "remote", r.RemoteAddr)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "session", session.ID, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		session.touch()

		resp := s.server.HandleMessage(session.Context, data)
		if resp == nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			s.logger.Warn("failed to send response", "session", session.ID, "error", err)
			return
		}
	}
}

func (s *InteractiveServer) addSession(session *Session) {
	s.sessionsMutex.Lock()
	s.sessions[session.ID] = session
	s.sessionsMutex.Unlock()
}

func (s *InteractiveServer) removeSession(id string) {
	s.sessionsMutex.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.sessionsMutex.Unlock()
	if ok {
		session.Cancel()
		s.logger.Info("session closed", "session", id, "duration", time.Since(session.CreatedAt))
	}
}

// sessionCleanup closes sessions idle for longer than sessionIdleTimeout.
func (s *InteractiveServer) sessionCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.closeIdle(sessionIdleTimeout)
		}
	}
}

func (s *InteractiveServer) closeIdle(idle time.Duration) {
	s.sessionsMutex.Lock()
	defer s.sessionsMutex.Unlock()
	for id, session := range s.sessions {
		if session.idleSince() > idle {
			s.logger.Info("cleaning up inactive session", "session", id)
			session.Cancel()
			session.WebSocket.Close()
			delete(s.sessions, id)
		}
	}
}

func (s *InteractiveServer) closeAll() {
	s.closeIdle(-1)
}

func (s *InteractiveServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sessionsMutex.RLock()
	sessionCount := len(s.sessions)
	s.sessionsMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "healthy",
		"mode":            "websocket",
		"active_sessions": sessionCount,
		"tools":           len(s.server.Tools()),
	})
}

// Package mcp serves the computer tool over JSON-RPC 2.0 following the Model
// Context Protocol. Transports feed it one message at a time.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"computer-mcp/internal/computer"
)

// Executor runs one validated computer request.
type Executor interface {
	Execute(ctx context.Context, req computer.Request) (computer.Response, error)
}

// RPCRecorder receives one observation per handled request.
type RPCRecorder interface {
	RecordRPC(method, status string)
}

// ErrorTracer receives protocol failures that never reach the executor.
type ErrorTracer interface {
	LogError(source string, err error, detail string) error
}

type Server struct {
	info     ServerInfo
	exec     Executor
	tool     *computerTool
	logger   *slog.Logger
	recorder RPCRecorder
	tracer   ErrorTracer
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(r RPCRecorder) Option {
	return func(s *Server) { s.recorder = r }
}

func WithTracer(t ErrorTracer) Option {
	return func(s *Server) { s.tracer = t }
}

func NewServer(info ServerInfo, exec Executor, opts ...Option) (*Server, error) {
	tool, err := newComputerTool()
	if err != nil {
		return nil, err
	}
	s := &Server{
		info:   info,
		exec:   exec,
		tool:   tool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tools returns the published tool definitions.
func (s *Server) Tools() []Tool {
	return []Tool{s.tool.def}
}

// HandleMessage decodes one raw JSON-RPC message and returns the encoded
// response, or nil when the message was a notification.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.trace("decode", err, string(truncate(raw, 200)))
		return s.encode(&Response{
			Jsonrpc: "2.0",
			ID:      nullID,
			Error:   &Error{Code: CodeParseError, Message: "Parse error", Data: err.Error()},
		})
	}

	resp := s.Handle(ctx, req)
	if resp == nil {
		return nil
	}
	return s.encode(resp)
}

// Handle dispatches one decoded request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req Request) *Response {
	result, rpcErr := s.dispatch(ctx, req)

	status := "success"
	if rpcErr != nil {
		status = "error"
		s.logger.WarnContext(ctx, "request failed", "method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)
		s.trace(req.Method, rpcErr, fmt.Sprintf("code %d", rpcErr.Code))
	}
	if s.recorder != nil {
		s.recorder.RecordRPC(metricMethod(req.Method), status)
	}

	if req.IsNotification() {
		return nil
	}
	resp := &Response{Jsonrpc: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else if result == nil {
		resp.Result = map[string]any{}
	} else {
		resp.Result = result
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *Error) {
	if req.Jsonrpc != "2.0" {
		return nil, &Error{Code: CodeInvalidRequest, Message: "Invalid Request", Data: "jsonrpc must be \"2.0\""}
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.Tools()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		return nil, nil
	}
	return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: req.Method}
}

func (s *Server) handleInitialize() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": s.info,
	}
}

func (s *Server) handleToolsCall(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params CallToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: err.Error()}
	}
	result, rpcErr := s.CallTool(ctx, params.Name, params.Arguments)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return result, nil
}

// CallTool validates arguments and runs the named tool. Execution failures
// become an IsError result carrying the error message; only unknown tools
// and schema violations are protocol errors.
func (s *Server) CallTool(ctx context.Context, name string, arguments json.RawMessage) (*CallToolResult, *Error) {
	if name != ToolName {
		return nil, &Error{Code: CodeInvalidParams, Message: "Unknown tool", Data: name}
	}

	req, err := s.tool.decode(arguments)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "Invalid arguments", Data: err.Error()}
	}

	resp, err := s.exec.Execute(ctx, req)
	if err != nil {
		return &CallToolResult{
			Content: []computer.Block{computer.TextBlock(err.Error())},
			IsError: true,
		}, nil
	}
	return &CallToolResult{Content: resp}, nil
}

func (s *Server) encode(resp *Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		data, _ = json.Marshal(&Response{
			Jsonrpc: "2.0",
			ID:      resp.ID,
			Error:   &Error{Code: CodeInternalError, Message: "Internal error"},
		})
	}
	return data
}

func (s *Server) trace(source string, err error, detail string) {
	if s.tracer == nil {
		return
	}
	if traceErr := s.tracer.LogError(source, err, detail); traceErr != nil {
		s.logger.Debug("debug trace write failed", "error", traceErr)
	}
}

// metricMethod keeps label cardinality bounded.
func metricMethod(method string) string {
	switch method {
	case "initialize", "ping", "tools/list", "tools/call":
		return method
	}
	if strings.HasPrefix(method, "notifications/") {
		return "notification"
	}
	return "unknown"
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

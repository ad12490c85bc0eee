// Package app assembles the computer tool from configuration. Every binary
// builds one App and hands its Server to a transport.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"computer-mcp/internal/computer"
	"computer-mcp/internal/config"
	"computer-mcp/internal/debug"
	"computer-mcp/internal/mcp"
	"computer-mcp/internal/observability"
	"computer-mcp/internal/screenshot"
	"computer-mcp/internal/tools"
)

type App struct {
	Logger     *slog.Logger
	Desktop    *tools.Desktop
	Pipeline   *screenshot.Pipeline
	Dispatcher *computer.Dispatcher
	Executor   mcp.Executor
	Server     *mcp.Server
	Metrics    *observability.Metrics
	Trace      *debug.DebugLogger

	configPath string
	levelVar   *slog.LevelVar

	mu  sync.RWMutex
	cfg *config.Config
}

// New loads the configuration at configPath (see config.ResolvePath) and
// wires every component. Metrics register with reg.
func New(configPath string, reg prometheus.Registerer) (*App, error) {
	path := config.ResolvePath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	levelVar := new(slog.LevelVar)
	logger := observability.NewLogger(observability.LogConfig{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Output:   os.Stderr,
		LevelVar: levelVar,
	})

	metrics := observability.NewMetrics(reg)

	trace := debug.NewDebugLogger(config.GetDebugConfig())
	if err := trace.StartNewSession(uuid.NewString()); err != nil {
		logger.Warn("failed to start debug trace", "error", err)
	}

	desktop := tools.NewDesktop(cfg.Commands, cfg.Restrictions, cfg.Backend, logger)
	pipeline := screenshot.NewPipeline(desktop, NewCompressor(cfg.Screenshot, desktop), screenshotOptions(cfg.Screenshot),
		screenshot.WithLogger(logger),
		screenshot.WithRecorder(metrics),
	)
	dispatcher := computer.NewDispatcher(desktop, tracedShots{pipeline: pipeline, trace: trace, logger: logger},
		computer.WithLogger(logger),
		computer.WithRecorder(metrics),
	)
	executor := tracedExecutor{dispatcher: dispatcher, trace: trace, logger: logger}

	server, err := mcp.NewServer(mcp.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}, executor,
		mcp.WithLogger(logger),
		mcp.WithRecorder(metrics),
		mcp.WithTracer(trace),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("computer tool initialized",
		"config", path,
		"compressor", cfg.Screenshot.Compressor,
		"settle_delay", cfg.Screenshot.SettleDelay.Duration,
		"pixel_budget", cfg.Screenshot.PixelBudget,
		"debug_trace", trace.GetCurrentLogFile())

	return &App{
		Logger:     logger,
		Desktop:    desktop,
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
		Executor:   executor,
		Server:     server,
		Metrics:    metrics,
		Trace:      trace,
		configPath: path,
		levelVar:   levelVar,
		cfg:        cfg,
	}, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Reload re-reads the configuration file and applies the parts that can
// change at runtime: screenshot tuning, blocked patterns and log level.
// Server addresses and the allow list need a restart.
func (a *App) Reload() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	a.Pipeline.Configure(screenshotOptions(cfg.Screenshot), NewCompressor(cfg.Screenshot, a.Desktop))
	a.Desktop.UpdateRestrictions(cfg.Restrictions)
	a.levelVar.Set(observability.ParseLevel(cfg.Logging.Level))

	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.Logger.Info("configuration reloaded",
		"compressor", cfg.Screenshot.Compressor,
		"settle_delay", cfg.Screenshot.SettleDelay.Duration,
		"pixel_budget", cfg.Screenshot.PixelBudget,
		"log_level", cfg.Logging.Level)
	return nil
}

// WatchConfig reloads whenever the configuration file changes, until ctx
// is done. A missing watcher is logged and otherwise ignored.
func (a *App) WatchConfig(ctx context.Context) {
	changes, err := config.Watch(ctx, a.configPath, a.Logger)
	if err != nil {
		a.Logger.Warn("configuration reload disabled", "file", a.configPath, "error", err)
		return
	}
	go func() {
		for range changes {
			if err := a.Reload(); err != nil {
				a.Logger.Error("configuration reload failed, keeping previous settings", "error", err)
			}
		}
	}()
}

// NewCompressor builds the codec named in cfg. External codecs run through
// runner so they share the command allow list.
func NewCompressor(cfg config.ScreenshotSection, runner screenshot.Runner) screenshot.Compressor {
	if cfg.Compressor == config.CompressorPngquant {
		return screenshot.PngquantCompressor{Runner: runner, Colors: cfg.Colors, Quality: cfg.PngquantQuality}
	}
	return screenshot.QuantizeCompressor{Colors: cfg.Colors}
}

func screenshotOptions(cfg config.ScreenshotSection) screenshot.Options {
	return screenshot.Options{SettleDelay: cfg.SettleDelay.Duration, PixelBudget: cfg.PixelBudget}
}

// tracedExecutor writes every request to the debug trace.
type tracedExecutor struct {
	dispatcher *computer.Dispatcher
	trace      *debug.DebugLogger
	logger     *slog.Logger
}

func (e tracedExecutor) Execute(ctx context.Context, req computer.Request) (computer.Response, error) {
	start := time.Now()
	resp, err := e.dispatcher.Execute(ctx, req)
	if !e.trace.IsEnabled() {
		return resp, err
	}

	entry := debug.ActionEntry{
		Timestamp: start,
		Action:    string(req.Action),
		Text:      req.Text,
		Success:   err == nil,
		Duration:  time.Since(start),
	}
	if req.Coordinate != nil {
		entry.Coordinate = req.Coordinate.String()
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Result = fmt.Sprintf("%d block(s)", len(resp))
	}
	if traceErr := e.trace.LogAction(entry); traceErr != nil {
		e.logger.Debug("debug trace write failed", "error", traceErr)
	}
	return resp, err
}

// tracedShots records capture sizes in the debug trace.
type tracedShots struct {
	pipeline *screenshot.Pipeline
	trace    *debug.DebugLogger
	logger   *slog.Logger
}

func (s tracedShots) Capture(ctx context.Context) (*screenshot.Result, error) {
	result, err := s.pipeline.Capture(ctx)
	if err != nil || !s.trace.IsEnabled() {
		return result, err
	}
	traceErr := s.trace.LogScreenshot(debug.ScreenshotEntry{
		Timestamp:    time.Now(),
		Width:        result.Width,
		Height:       result.Height,
		ScaledWidth:  result.ScaledWidth,
		ScaledHeight: result.ScaledHeight,
		PayloadBytes: len(result.Data) * 3 / 4,
	})
	if traceErr != nil {
		s.logger.Debug("debug trace write failed", "error", traceErr)
	}
	return result, nil
}

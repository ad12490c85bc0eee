package tools

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"computer-mcp/internal/computer"
	"computer-mcp/internal/config"
	"computer-mcp/internal/screenshot"
)

type commandExecutor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
	Available(name string) bool
}

// Desktop drives an X11 session through xdotool and the usual screenshot
// utilities. It implements computer.Backend and screenshot.Capturer.
type Desktop struct {
	scratch   *Scratch
	typeDelay time.Duration
	display   string
	allowed   []string
	logger    *slog.Logger

	mu   sync.RWMutex
	exec commandExecutor
}

var (
	_ computer.Backend    = (*Desktop)(nil)
	_ screenshot.Capturer = (*Desktop)(nil)
	_ screenshot.Runner   = (*Desktop)(nil)
)

func NewDesktop(commands config.CommandsSection, restrictions config.RestrictionsSection, backend config.BackendSection, logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{
		scratch:   NewScratch(backend.ScratchDir),
		typeDelay: time.Duration(backend.TypeDelayMS) * time.Millisecond,
		display:   backend.Display,
		allowed:   commands.Allowed,
		logger:    logger,
		exec:      NewCommandRunner(commands.Allowed, restrictions.BlockedPatterns, backend.Display),
	}
}

// UpdateRestrictions swaps the blocked patterns used for later commands.
func (d *Desktop) UpdateRestrictions(restrictions config.RestrictionsSection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exec = NewCommandRunner(d.allowed, restrictions.BlockedPatterns, d.display)
}

// RunWithInput lets external codecs such as pngquant share the allow list.
func (d *Desktop) RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	return d.executor().RunWithInput(ctx, stdin, name, args...)
}

func (d *Desktop) executor() commandExecutor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.exec
}

// Package computer validates computer-tool requests and routes them to the
// input, display and screenshot backends.
package computer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"computer-mcp/internal/keys"
)

// Dispatcher executes one request at a time against a Backend. It keeps no
// state between calls; cursor and keyboard state belong to the OS.
type Dispatcher struct {
	backend  Backend
	shots    Screenshotter
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher creates a dispatcher over backend and shots.
func NewDispatcher(backend Backend, shots Screenshotter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		shots:   shots,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type handlerFunc func(d *Dispatcher, ctx context.Context, req Request) (Response, error)

var handlers = [...]handlerFunc{
	kindKey:               (*Dispatcher).pressKeys,
	kindType:              (*Dispatcher).typeText,
	kindMouseMove:         (*Dispatcher).moveCursor,
	kindLeftClick:         clickHandler(ButtonLeft, 1, "Left click performed"),
	kindLeftClickDrag:     (*Dispatcher).drag,
	kindRightClick:        clickHandler(ButtonRight, 1, "Right click performed"),
	kindMiddleClick:       clickHandler(ButtonMiddle, 1, "Middle click performed"),
	kindDoubleClick:       clickHandler(ButtonLeft, 2, "Double click performed"),
	kindGetScreenshot:     (*Dispatcher).screenshot,
	kindGetCursorPosition: (*Dispatcher).cursorPosition,
}

// Catches a table longer or shorter than the enum at compile time. A nil
// entry in the middle is caught by TestHandlerTableIsComplete.
var _ [kindCount]handlerFunc = handlers

// Execute validates req and performs it.
//
// Validation runs in a fixed order before any device mutation: coordinate
// bounds against the live display size, then required fields for the
// action, then the action name itself.
//
// Once dispatched, an action runs to completion: cancellation of ctx is not
// propagated to the backend, so a disconnecting client cannot leave keys or
// buttons held down. Context values are kept.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (Response, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	resp, err := d.execute(ctx, req)
	d.observe(ctx, req, err, time.Since(start))
	return resp, err
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (Response, error) {
	k, err := d.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	return handlers[k](d, ctx, req)
}

func (d *Dispatcher) validate(ctx context.Context, req Request) (kind, error) {
	if req.Coordinate != nil {
		if err := d.checkBounds(ctx, *req.Coordinate); err != nil {
			return 0, err
		}
	}

	switch req.Action {
	case ActionKey, ActionType:
		if req.Text == "" {
			return 0, fmt.Errorf("%w: text is required for %s", ErrMissingArgument, req.Action)
		}
	case ActionMouseMove, ActionLeftClickDrag:
		if req.Coordinate == nil {
			return 0, fmt.Errorf("%w: coordinate is required for %s", ErrMissingArgument, req.Action)
		}
	}

	k, ok := kindOf(req.Action)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	return k, nil
}

func (d *Dispatcher) checkBounds(ctx context.Context, c Coordinate) error {
	width, height, err := d.backend.DisplaySize(ctx)
	if err != nil {
		return fmt.Errorf("read display size: %w", err)
	}
	if c.X < 0 || c.X >= width || c.Y < 0 || c.Y >= height {
		return fmt.Errorf("%w: %s is outside the %dx%d display", ErrOutOfBounds, c, width, height)
	}
	return nil
}

func (d *Dispatcher) pressKeys(ctx context.Context, req Request) (Response, error) {
	combo, err := keys.Parse(req.Text)
	if err != nil {
		return nil, err
	}
	d.logger.DebugContext(ctx, "pressing key combo", "combo", combo.String(), "keysyms", combo.Keysyms())

	pressed := make([]keys.Token, 0, len(combo))
	for _, key := range combo {
		if err := d.backend.KeyDown(ctx, key); err != nil {
			pressErr := fmt.Errorf("press %s: %w", key, err)
			return nil, errors.Join(pressErr, d.releaseAll(ctx, pressed))
		}
		pressed = append(pressed, key)
	}
	if err := d.releaseAll(ctx, pressed); err != nil {
		return nil, err
	}
	return Response{TextBlock("Pressed keys: " + req.Text)}, nil
}

// releaseAll lifts every pressed key in order, continuing past failures so
// one stuck key does not leave the rest latched.
func (d *Dispatcher) releaseAll(ctx context.Context, pressed []keys.Token) error {
	var errs []error
	for _, key := range pressed {
		if err := d.backend.KeyUp(ctx, key); err != nil {
			d.logger.WarnContext(ctx, "failed to release key", "key", key.String(), "error", err)
			errs = append(errs, fmt.Errorf("release %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) typeText(ctx context.Context, req Request) (Response, error) {
	if err := d.backend.TypeText(ctx, req.Text); err != nil {
		return nil, fmt.Errorf("type text: %w", err)
	}
	return Response{TextBlock("Typed text: " + req.Text)}, nil
}

func (d *Dispatcher) moveCursor(ctx context.Context, req Request) (Response, error) {
	to := *req.Coordinate
	if err := d.backend.MoveCursor(ctx, to); err != nil {
		return nil, fmt.Errorf("move cursor: %w", err)
	}
	return Response{TextBlock("Moved cursor to " + to.String())}, nil
}

func clickHandler(button Button, count int, message string) handlerFunc {
	return func(d *Dispatcher, ctx context.Context, _ Request) (Response, error) {
		if err := d.backend.Click(ctx, button, count); err != nil {
			return nil, fmt.Errorf("%s click: %w", button, err)
		}
		return Response{TextBlock(message)}, nil
	}
}

// drag is exactly press, one move, release.
func (d *Dispatcher) drag(ctx context.Context, req Request) (Response, error) {
	to := *req.Coordinate
	if err := d.backend.MouseDown(ctx, ButtonLeft); err != nil {
		return nil, fmt.Errorf("press left button: %w", err)
	}
	if err := d.backend.MoveCursor(ctx, to); err != nil {
		if upErr := d.backend.MouseUp(ctx, ButtonLeft); upErr != nil {
			d.logger.Warn("failed to release left button after error", "error", upErr)
		}
		return nil, fmt.Errorf("drag to %s: %w", to, err)
	}
	if err := d.backend.MouseUp(ctx, ButtonLeft); err != nil {
		return nil, fmt.Errorf("release left button: %w", err)
	}
	return Response{TextBlock("Dragged to " + to.String())}, nil
}

func (d *Dispatcher) cursorPosition(ctx context.Context, _ Request) (Response, error) {
	pos, err := d.backend.CursorPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cursor position: %w", err)
	}
	block, err := JSONBlock(map[string]int{"x": pos.X, "y": pos.Y})
	if err != nil {
		return nil, err
	}
	return Response{block}, nil
}

type displaySize struct {
	WidthPx  int `json:"display_width_px"`
	HeightPx int `json:"display_height_px"`
}

// screenshot reports the original display size, which is the coordinate
// space for later mouse actions, even when the image itself was scaled down.
func (d *Dispatcher) screenshot(ctx context.Context, _ Request) (Response, error) {
	if d.shots == nil {
		return nil, errors.New("screenshot pipeline not configured")
	}
	result, err := d.shots.Capture(ctx)
	if err != nil {
		return nil, err
	}
	size, err := JSONBlock(displaySize{WidthPx: result.Width, HeightPx: result.Height})
	if err != nil {
		return nil, err
	}
	return Response{size, ImageBlock(result.Data, result.MimeType)}, nil
}

func (d *Dispatcher) observe(ctx context.Context, req Request, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if d.recorder != nil {
		d.recorder.RecordAction(string(req.Action), status, elapsed.Seconds())
	}

	attrs := []any{"action", req.Action, "duration", elapsed}
	if req.Coordinate != nil {
		attrs = append(attrs, "coordinate", req.Coordinate.String())
	}
	if req.Text != "" {
		attrs = append(attrs, "text_runes", utf8.RuneCountInString(req.Text))
	}
	if err != nil {
		d.logger.WarnContext(ctx, "computer action failed", append(attrs, "error", err)...)
		return
	}
	d.logger.DebugContext(ctx, "computer action executed", attrs...)
}

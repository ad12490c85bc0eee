// Package screenshot captures the screen and packages it under a pixel budget:
// settle, capture, downscale, PNG encode, lossy quantize, base64.
package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"
)

// ErrPipeline marks a capture, encode or compression failure.
var ErrPipeline = errors.New("screenshot failed")

// MimeType is the media type of every payload.
const MimeType = "image/png"

// DefaultSettleDelay is waited before every capture so that preceding
// input has been drawn.
const DefaultSettleDelay = time.Second

// Capturer grabs the full screen at native resolution.
type Capturer interface {
	CaptureScreen(ctx context.Context) (image.Image, error)
}

// Recorder receives one observation per successful capture.
type Recorder interface {
	RecordScreenshot(payloadBytes int, resized bool)
}

// Result is a packaged screenshot.
type Result struct {
	// Width and Height are the native display size, before any resize.
	Width  int
	Height int

	// ScaledWidth and ScaledHeight are the size of the encoded image.
	ScaledWidth  int
	ScaledHeight int

	// Data is the base64-encoded PNG.
	Data     string
	MimeType string
}

// Resized reports whether the image was scaled down.
func (r *Result) Resized() bool {
	return r.Width != r.ScaledWidth || r.Height != r.ScaledHeight
}

// Options are the tunables of the pipeline.
type Options struct {
	// SettleDelay is waited before every capture. Zero disables the wait;
	// negative values are treated as zero.
	SettleDelay time.Duration

	// PixelBudget is the largest width*height sent unscaled. Zero or
	// negative means DefaultPixelBudget.
	PixelBudget int
}

// DefaultOptions returns a one second settle delay and the 1366x768 budget.
func DefaultOptions() Options {
	return Options{SettleDelay: DefaultSettleDelay, PixelBudget: DefaultPixelBudget}
}

// Pipeline produces screenshots. Options and compressor may be swapped at
// runtime through Configure.
type Pipeline struct {
	capturer Capturer
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
	recorder Recorder

	mu         sync.RWMutex
	opts       Options
	compressor Compressor
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSleep replaces the settle wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) PipelineOption {
	return func(p *Pipeline) { p.sleep = sleep }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = r }
}

// NewPipeline creates a pipeline. Use DefaultOptions for the one second
// settle delay; a zero SettleDelay captures immediately.
func NewPipeline(capturer Capturer, compressor Compressor, opts Options, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		capturer:   capturer,
		compressor: compressor,
		opts:       withDefaults(opts),
		sleep:      sleepContext,
		logger:     slog.Default(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Configure replaces the options and, when non-nil, the compressor.
func (p *Pipeline) Configure(opts Options, compressor Compressor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = withDefaults(opts)
	if compressor != nil {
		p.compressor = compressor
	}
}

// Options returns the active options.
func (p *Pipeline) Options() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// Capture runs the full pipeline. Any failure is fatal for the request and
// wraps ErrPipeline; there is no fallback to uncompressed bytes.
func (p *Pipeline) Capture(ctx context.Context) (*Result, error) {
	p.mu.RLock()
	opts, compressor := p.opts, p.compressor
	p.mu.RUnlock()

	if err := p.sleep(ctx, opts.SettleDelay); err != nil {
		return nil, fmt.Errorf("%w: settle: %w", ErrPipeline, err)
	}

	img, err := p.capturer.CaptureScreen(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: capture: %w", ErrPipeline, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: capture returned an empty %dx%d image", ErrPipeline, width, height)
	}

	scaledWidth, scaledHeight, resized := ScaledSize(width, height, opts.PixelBudget)
	if resized {
		img = resize(img, scaledWidth, scaledHeight)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrPipeline, err)
	}
	raw := buf.Bytes()

	if compressor == nil {
		return nil, fmt.Errorf("%w: no compressor configured", ErrPipeline)
	}
	compressed, err := compressor.Compress(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: compress: %w", ErrPipeline, err)
	}
	if len(compressed) > len(raw) {
		return nil, fmt.Errorf("%w: compressor grew payload from %d to %d bytes", ErrPipeline, len(raw), len(compressed))
	}

	p.logger.DebugContext(ctx, "screenshot captured",
		"width", width, "height", height,
		"scaled_width", scaledWidth, "scaled_height", scaledHeight,
		"png_bytes", len(raw), "compressed_bytes", len(compressed))
	if p.recorder != nil {
		p.recorder.RecordScreenshot(len(compressed), resized)
	}

	return &Result{
		Width:        width,
		Height:       height,
		ScaledWidth:  scaledWidth,
		ScaledHeight: scaledHeight,
		Data:         base64.StdEncoding.EncodeToString(compressed),
		MimeType:     MimeType,
	}, nil
}

func withDefaults(opts Options) Options {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.PixelBudget <= 0 {
		opts.PixelBudget = DefaultPixelBudget
	}
	return opts
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

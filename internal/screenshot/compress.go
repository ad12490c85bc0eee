package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Compressor shrinks PNG bytes, possibly losing fidelity. It must never
// return more bytes than it was given.
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// DefaultColors is the palette size used when none is configured.
const DefaultColors = 256

// QuantizeCompressor reduces the image to a median-cut palette with
// Floyd-Steinberg dithering and re-encodes it as a paletted PNG.
type QuantizeCompressor struct {
	Colors int
}

// Compress implements Compressor.
func (q QuantizeCompressor) Compress(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	colors := q.Colors
	if colors <= 0 || colors > 256 {
		colors = DefaultColors
	}

	quantizer := quantize.MedianCutQuantizer{}
	palette := quantizer.Quantize(make(color.Palette, 0, colors), img)
	if len(palette) == 0 {
		return data, nil
	}

	bounds := img.Bounds()
	paletted := image.NewPaletted(bounds, palette)
	draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, paletted); err != nil {
		return nil, fmt.Errorf("encode paletted png: %w", err)
	}
	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}

// Runner executes an external program with data on stdin and returns its stdout.
type Runner interface {
	RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// PngquantCompressor pipes the image through the pngquant binary.
type PngquantCompressor struct {
	Runner  Runner
	Colors  int
	Quality string
}

// Compress implements Compressor.
func (p PngquantCompressor) Compress(ctx context.Context, data []byte) ([]byte, error) {
	if p.Runner == nil {
		return nil, fmt.Errorf("pngquant: no command runner")
	}
	colors := p.Colors
	if colors < 2 || colors > 256 {
		colors = DefaultColors
	}
	args := []string{"--speed", "3"}
	if p.Quality != "" {
		args = append(args, "--quality", p.Quality)
	}
	args = append(args, strconv.Itoa(colors), "-")

	out, err := p.Runner.RunWithInput(ctx, data, "pngquant", args...)
	if err != nil {
		return nil, fmt.Errorf("pngquant: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pngquant: empty output")
	}
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
)

type captureCommand struct {
	name string
	args func(path string) []string
}

// Tried in order until one produces a readable PNG.
var captureCommands = []captureCommand{
	{name: "gnome-screenshot", args: func(path string) []string { return []string{"-f", path} }},
	{name: "scrot", args: func(path string) []string { return []string{"-o", path} }},
	{name: "import", args: func(path string) []string { return []string{"-window", "root", path} }},
}

// CaptureScreen grabs the whole screen at native resolution.
func (d *Desktop) CaptureScreen(ctx context.Context) (image.Image, error) {
	exec := d.executor()

	var errs []error
	for _, tool := range captureCommands {
		if !exec.Available(tool.name) {
			errs = append(errs, fmt.Errorf("%s: not available", tool.name))
			continue
		}
		img, err := d.captureWith(ctx, exec, tool)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		d.logger.Warn("screen capture failed, trying next tool", "tool", tool.name, "error", err)
	}
	return nil, fmt.Errorf("no screen capture tool succeeded: %w", errors.Join(errs...))
}

func (d *Desktop) captureWith(ctx context.Context, exec commandExecutor, tool captureCommand) (image.Image, error) {
	path, cleanup, err := d.scratch.TempFile("computer-shot-*.png")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := exec.Run(ctx, tool.name, tool.args(path)...); err != nil {
		return nil, err
	}

	data, err := d.scratch.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool.name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: wrote an empty file", tool.name)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode png: %w", tool.name, err)
	}
	return img, nil
}

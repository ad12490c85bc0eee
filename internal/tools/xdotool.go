package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"computer-mcp/internal/computer"
	"computer-mcp/internal/keys"
)

func (d *Desktop) xdotool(ctx context.Context, args ...string) ([]byte, error) {
	return d.executor().Run(ctx, "xdotool", args...)
}

// DisplaySize asks the X server every time; the resolution may change
// between calls.
func (d *Desktop) DisplaySize(ctx context.Context) (int, int, error) {
	out, err := d.xdotool(ctx, "getdisplaygeometry")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected display geometry %q", strings.TrimSpace(string(out)))
	}
	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse display width: %w", err)
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse display height: %w", err)
	}
	return width, height, nil
}

func (d *Desktop) CursorPosition(ctx context.Context) (computer.Coordinate, error) {
	out, err := d.xdotool(ctx, "getmouselocation", "--shell")
	if err != nil {
		return computer.Coordinate{}, err
	}

	values := make(map[string]int)
	for _, line := range strings.Split(string(out), "\n") {
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if n, convErr := strconv.Atoi(strings.TrimSpace(value)); convErr == nil {
			values[strings.ToUpper(strings.TrimSpace(name))] = n
		}
	}

	x, okX := values["X"]
	y, okY := values["Y"]
	if !okX || !okY {
		return computer.Coordinate{}, fmt.Errorf("unexpected mouse location %q", strings.TrimSpace(string(out)))
	}
	return computer.Coordinate{X: x, Y: y}, nil
}

func (d *Desktop) MoveCursor(ctx context.Context, to computer.Coordinate) error {
	_, err := d.xdotool(ctx, "mousemove", strconv.Itoa(to.X), strconv.Itoa(to.Y))
	return err
}

func (d *Desktop) KeyDown(ctx context.Context, key keys.Token) error {
	_, err := d.xdotool(ctx, "keydown", key.Keysym())
	return err
}

func (d *Desktop) KeyUp(ctx context.Context, key keys.Token) error {
	_, err := d.xdotool(ctx, "keyup", key.Keysym())
	return err
}

// TypeText sends text as literal characters. Text after "--" is never
// parsed as options, even when it starts with a dash.
func (d *Desktop) TypeText(ctx context.Context, text string) error {
	delay := strconv.Itoa(int(d.typeDelay.Milliseconds()))
	_, err := d.xdotool(ctx, "type", "--delay", delay, "--", text)
	return err
}

func (d *Desktop) MouseDown(ctx context.Context, button computer.Button) error {
	_, err := d.xdotool(ctx, "mousedown", strconv.Itoa(int(button)))
	return err
}

func (d *Desktop) MouseUp(ctx context.Context, button computer.Button) error {
	_, err := d.xdotool(ctx, "mouseup", strconv.Itoa(int(button)))
	return err
}

// Click presses and releases button count times at the current position.
func (d *Desktop) Click(ctx context.Context, button computer.Button, count int) error {
	args := []string{"click"}
	if count > 1 {
		args = append(args, "--repeat", strconv.Itoa(count))
	}
	args = append(args, strconv.Itoa(int(button)))
	_, err := d.xdotool(ctx, args...)
	return err
}

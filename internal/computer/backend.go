package computer

import (
	"context"

	"computer-mcp/internal/keys"
	"computer-mcp/internal/screenshot"
)

// Display reports the current size of the screen. Implementations must read
// the live value on every call.
type Display interface {
	DisplaySize(ctx context.Context) (width, height int, err error)
}

// Input injects pointer and keyboard events into the operating system.
type Input interface {
	CursorPosition(ctx context.Context) (Coordinate, error)
	MoveCursor(ctx context.Context, to Coordinate) error
	KeyDown(ctx context.Context, key keys.Token) error
	KeyUp(ctx context.Context, key keys.Token) error
	TypeText(ctx context.Context, text string) error
	MouseDown(ctx context.Context, button Button) error
	MouseUp(ctx context.Context, button Button) error
	Click(ctx context.Context, button Button, count int) error
}

// Backend is the device surface the dispatcher drives.
type Backend interface {
	Display
	Input
}

// Screenshotter produces a packaged screenshot.
type Screenshotter interface {
	Capture(ctx context.Context) (*screenshot.Result, error)
}

// Recorder receives one observation per executed request.
type Recorder interface {
	RecordAction(action, status string, durationSeconds float64)
}

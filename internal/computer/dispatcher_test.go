package computer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"computer-mcp/internal/keys"
	"computer-mcp/internal/screenshot"
)

type fakeBackend struct {
	width, height int
	cursor        Coordinate
	calls         []string
	failOn        string
	sizeReads     int

	// cancel runs after the call named cancelOn, the way a client
	// disconnect lands mid-action.
	cancelOn string
	cancel   context.CancelFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{width: 1920, height: 1080, cursor: Coordinate{X: 10, Y: 20}}
}

// record fails once ctx is done, as exec.CommandContext does.
func (f *fakeBackend) record(ctx context.Context, call string) error {
	if err := ctx.Err(); err != nil {
		f.calls = append(f.calls, call+" canceled")
		return err
	}
	f.calls = append(f.calls, call)
	if f.cancel != nil && call == f.cancelOn {
		f.cancel()
	}
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return errors.New("device error")
	}
	return nil
}

func (f *fakeBackend) DisplaySize(context.Context) (int, int, error) {
	f.sizeReads++
	return f.width, f.height, nil
}

func (f *fakeBackend) CursorPosition(context.Context) (Coordinate, error) {
	return f.cursor, nil
}

func (f *fakeBackend) MoveCursor(ctx context.Context, to Coordinate) error {
	if err := f.record(ctx, "move "+to.String()); err != nil {
		return err
	}
	f.cursor = to
	return nil
}

func (f *fakeBackend) KeyDown(ctx context.Context, key keys.Token) error {
	return f.record(ctx, "down "+key.Keysym())
}

func (f *fakeBackend) KeyUp(ctx context.Context, key keys.Token) error {
	return f.record(ctx, "up "+key.Keysym())
}

func (f *fakeBackend) TypeText(ctx context.Context, text string) error {
	return f.record(ctx, "type "+text)
}

func (f *fakeBackend) MouseDown(ctx context.Context, button Button) error {
	return f.record(ctx, "mousedown "+button.String())
}

func (f *fakeBackend) MouseUp(ctx context.Context, button Button) error {
	return f.record(ctx, "mouseup "+button.String())
}

func (f *fakeBackend) Click(ctx context.Context, button Button, count int) error {
	return f.record(ctx, fmt.Sprintf("click %s x%d", button, count))
}

type fakeShots struct {
	result *screenshot.Result
	err    error
	calls  int
}

func (f *fakeShots) Capture(context.Context) (*screenshot.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeRecorder struct {
	actions []string
}

func (f *fakeRecorder) RecordAction(action, status string, _ float64) {
	f.actions = append(f.actions, action+":"+status)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func at(x, y int) *Coordinate {
	return &Coordinate{X: x, Y: y}
}

func TestHandlerTableIsComplete(t *testing.T) {
	for k, h := range handlers {
		if h == nil {
			t.Errorf("no handler for %s", actionNames[k])
		}
		if actionNames[k] == "" {
			t.Errorf("kind %d has no action name", k)
		}
	}
	if got := len(Actions()); got != 10 {
		t.Errorf("Actions() has %d entries, want 10", got)
	}
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"key without text", Request{Action: ActionKey}, ErrMissingArgument},
		{"type without text", Request{Action: ActionType}, ErrMissingArgument},
		{"move without coordinate", Request{Action: ActionMouseMove}, ErrMissingArgument},
		{"drag without coordinate", Request{Action: ActionLeftClickDrag}, ErrMissingArgument},
		{"unknown action", Request{Action: "scroll"}, ErrUnknownAction},
		{"x past width", Request{Action: ActionMouseMove, Coordinate: at(1920, 5)}, ErrOutOfBounds},
		{"y past height", Request{Action: ActionMouseMove, Coordinate: at(5, 1080)}, ErrOutOfBounds},
		{"negative x", Request{Action: ActionMouseMove, Coordinate: at(-1, 5)}, ErrOutOfBounds},
		{"bounds checked before action name", Request{Action: "scroll", Coordinate: at(5000, 5)}, ErrOutOfBounds},
		{"bounds checked on clicks too", Request{Action: ActionLeftClick, Coordinate: at(5000, 5)}, ErrOutOfBounds},
		{"bad key", Request{Action: ActionKey, Text: "ctrl+kp_enter"}, keys.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

			_, err := d.Execute(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if len(backend.calls) != 0 {
				t.Errorf("device touched before validation failed: %v", backend.calls)
			}
		})
	}
}

func TestExecuteBoundsEdges(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	for _, c := range []*Coordinate{at(0, 0), at(1919, 1079)} {
		if _, err := d.Execute(context.Background(), Request{Action: ActionMouseMove, Coordinate: c}); err != nil {
			t.Errorf("move to %s: %v", c, err)
		}
	}
}

func TestExecuteReadsDisplaySizeEveryTime(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))
	req := Request{Action: ActionMouseMove, Coordinate: at(1500, 900)}

	if _, err := d.Execute(context.Background(), req); err != nil {
		t.Fatalf("first move: %v", err)
	}

	backend.width, backend.height = 1280, 720
	if _, err := d.Execute(context.Background(), req); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("after resize error = %v, want ErrOutOfBounds", err)
	}
	if backend.sizeReads != 2 {
		t.Errorf("display size read %d times, want 2", backend.sizeReads)
	}
}

func TestExecuteWithoutCoordinateSkipsBounds(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(context.Background(), Request{Action: ActionLeftClick}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if backend.sizeReads != 0 {
		t.Errorf("display size read %d times, want 0", backend.sizeReads)
	}
}

func TestExecuteKey(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	resp, err := d.Execute(context.Background(), Request{Action: ActionKey, Text: "ctrl+shift+s"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"down Control_L", "down Shift_L", "down s", "up Control_L", "up Shift_L", "up s"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
	if len(resp) != 1 || resp[0].Text != "Pressed keys: ctrl+shift+s" {
		t.Errorf("response = %+v", resp)
	}
}

func TestExecuteKeyReleasesAfterPressFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failOn = "down Shift_L"
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(context.Background(), Request{Action: ActionKey, Text: "ctrl+shift+s"}); err == nil {
		t.Fatal("expected error")
	}

	want := []string{"down Control_L", "down Shift_L", "up Control_L"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteKeyReleasesEveryKeyAfterReleaseFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failOn = "up Control_L"
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	_, err := d.Execute(context.Background(), Request{Action: ActionKey, Text: "ctrl+shift+s"})
	if err == nil || !strings.Contains(err.Error(), "release LeftControl") {
		t.Fatalf("error = %v, want release LeftControl failure", err)
	}

	want := []string{"down Control_L", "down Shift_L", "down s", "up Control_L", "up Shift_L", "up s"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteKeyRunsToCompletionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend := newFakeBackend()
	backend.cancelOn, backend.cancel = "down Shift_L", cancel
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(ctx, Request{Action: ActionKey, Text: "ctrl+shift+s"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"down Control_L", "down Shift_L", "down s", "up Control_L", "up Shift_L", "up s"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteDragRunsToCompletionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend := newFakeBackend()
	backend.cancelOn, backend.cancel = "mousedown left", cancel
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(ctx, Request{Action: ActionLeftClickDrag, Coordinate: at(5, 6)}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"mousedown left", "move (5, 6)", "mouseup left"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteType(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	resp, err := d.Execute(context.Background(), Request{Action: ActionType, Text: "hello world"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !reflect.DeepEqual(backend.calls, []string{"type hello world"}) {
		t.Errorf("calls = %v", backend.calls)
	}
	if resp[0].Text != "Typed text: hello world" {
		t.Errorf("response text = %q", resp[0].Text)
	}
}

func TestExecuteClicks(t *testing.T) {
	tests := []struct {
		action   Action
		wantCall string
		wantText string
	}{
		{ActionLeftClick, "click left x1", "Left click performed"},
		{ActionRightClick, "click right x1", "Right click performed"},
		{ActionMiddleClick, "click middle x1", "Middle click performed"},
		{ActionDoubleClick, "click left x2", "Double click performed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			backend := newFakeBackend()
			d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

			resp, err := d.Execute(context.Background(), Request{Action: tt.action})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !reflect.DeepEqual(backend.calls, []string{tt.wantCall}) {
				t.Errorf("calls = %v, want [%s]", backend.calls, tt.wantCall)
			}
			if resp[0].Text != tt.wantText {
				t.Errorf("response text = %q, want %q", resp[0].Text, tt.wantText)
			}
		})
	}
}

func TestExecuteMouseMove(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	resp, err := d.Execute(context.Background(), Request{Action: ActionMouseMove, Coordinate: at(100, 200)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if backend.cursor != (Coordinate{X: 100, Y: 200}) {
		t.Errorf("cursor = %s", backend.cursor)
	}
	if resp[0].Text != "Moved cursor to (100, 200)" {
		t.Errorf("response text = %q", resp[0].Text)
	}
}

func TestExecuteDrag(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(context.Background(), Request{Action: ActionLeftClickDrag, Coordinate: at(300, 400)}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"mousedown left", "move (300, 400)", "mouseup left"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteDragReleasesOnMoveFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failOn = "move"
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	if _, err := d.Execute(context.Background(), Request{Action: ActionLeftClickDrag, Coordinate: at(300, 400)}); err == nil {
		t.Fatal("expected error")
	}

	want := []string{"mousedown left", "move (300, 400)", "mouseup left"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("calls = %v, want %v", backend.calls, want)
	}
}

func TestExecuteCursorPositionIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	d := NewDispatcher(backend, nil, WithLogger(quietLogger()))

	first, err := d.Execute(context.Background(), Request{Action: ActionGetCursorPosition})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, err := d.Execute(context.Background(), Request{Action: ActionGetCursorPosition})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("responses differ: %+v vs %+v", first, second)
	}
	var pos map[string]int
	if err := json.Unmarshal([]byte(first[0].Text), &pos); err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if pos["x"] != 10 || pos["y"] != 20 {
		t.Errorf("position = %v, want x=10 y=20", pos)
	}
	if len(backend.calls) != 0 {
		t.Errorf("cursor read mutated the device: %v", backend.calls)
	}
}

func TestExecuteScreenshotReportsOriginalSize(t *testing.T) {
	shots := &fakeShots{result: &screenshot.Result{
		Width: 2560, Height: 1440,
		ScaledWidth: 1365, ScaledHeight: 768,
		Data: "aGVsbG8=", MimeType: screenshot.MimeType,
	}}
	d := NewDispatcher(newFakeBackend(), shots, WithLogger(quietLogger()))

	resp, err := d.Execute(context.Background(), Request{Action: ActionGetScreenshot})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("got %d blocks, want 2", len(resp))
	}
	if resp[0].Text != `{"display_width_px":2560,"display_height_px":1440}` {
		t.Errorf("size block = %q", resp[0].Text)
	}
	if resp[1].Type != BlockImage || resp[1].Data != "aGVsbG8=" || resp[1].MimeType != "image/png" {
		t.Errorf("image block = %+v", resp[1])
	}
}

func TestExecuteScreenshotFailure(t *testing.T) {
	shots := &fakeShots{err: fmt.Errorf("%w: capture: no display", screenshot.ErrPipeline)}
	d := NewDispatcher(newFakeBackend(), shots, WithLogger(quietLogger()))

	resp, err := d.Execute(context.Background(), Request{Action: ActionGetScreenshot})
	if !errors.Is(err, screenshot.ErrPipeline) {
		t.Fatalf("error = %v, want ErrPipeline", err)
	}
	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
}

func TestExecuteRecordsEveryRequest(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(newFakeBackend(), nil, WithLogger(quietLogger()), WithRecorder(rec))

	_, _ = d.Execute(context.Background(), Request{Action: ActionLeftClick})
	_, _ = d.Execute(context.Background(), Request{Action: ActionKey})

	want := []string{"left_click:success", "key:error"}
	if !reflect.DeepEqual(rec.actions, want) {
		t.Errorf("recorded = %v, want %v", rec.actions, want)
	}
}

func TestCoordinateJSON(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"action":"mouse_move","coordinate":[12,34]}`), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if req.Coordinate == nil || *req.Coordinate != (Coordinate{X: 12, Y: 34}) {
		t.Errorf("coordinate = %v", req.Coordinate)
	}

	for _, bad := range []string{`[1]`, `[1,2,3]`, `{"x":1}`} {
		var c Coordinate
		if err := json.Unmarshal([]byte(bad), &c); err == nil {
			t.Errorf("Unmarshal(%s) succeeded", bad)
		}
	}
}

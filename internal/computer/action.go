package computer

import (
	"encoding/json"
	"fmt"
)

// Action names one of the operations of the computer tool.
type Action string

const (
	ActionKey               Action = "key"
	ActionType              Action = "type"
	ActionMouseMove         Action = "mouse_move"
	ActionLeftClick         Action = "left_click"
	ActionLeftClickDrag     Action = "left_click_drag"
	ActionRightClick        Action = "right_click"
	ActionMiddleClick       Action = "middle_click"
	ActionDoubleClick       Action = "double_click"
	ActionGetScreenshot     Action = "get_screenshot"
	ActionGetCursorPosition Action = "get_cursor_position"
)

// kind indexes the handler table. Every Action has exactly one kind.
type kind int

const (
	kindKey kind = iota
	kindType
	kindMouseMove
	kindLeftClick
	kindLeftClickDrag
	kindRightClick
	kindMiddleClick
	kindDoubleClick
	kindGetScreenshot
	kindGetCursorPosition

	kindCount
)

var actionNames = [...]Action{
	kindKey:               ActionKey,
	kindType:              ActionType,
	kindMouseMove:         ActionMouseMove,
	kindLeftClick:         ActionLeftClick,
	kindLeftClickDrag:     ActionLeftClickDrag,
	kindRightClick:        ActionRightClick,
	kindMiddleClick:       ActionMiddleClick,
	kindDoubleClick:       ActionDoubleClick,
	kindGetScreenshot:     ActionGetScreenshot,
	kindGetCursorPosition: ActionGetCursorPosition,
}

// Catches actionNames growing or shrinking against the enum at compile
// time. A kind added in the middle without a name is caught by
// TestHandlerTableIsComplete.
var _ [kindCount]Action = actionNames

func kindOf(a Action) (kind, bool) {
	for k, name := range actionNames {
		if name == a {
			return kind(k), true
		}
	}
	return 0, false
}

// Actions lists every supported action in declaration order.
func Actions() []Action {
	out := make([]Action, len(actionNames))
	copy(out, actionNames[:])
	return out
}

// Coordinate is an absolute screen position in pixels.
type Coordinate struct {
	X int
	Y int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// MarshalJSON encodes the coordinate as [x, y].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON decodes a two-element [x, y] array.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate must be [x, y]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate must have exactly 2 elements, got %d", len(pair))
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// Request is one invocation of the computer tool.
type Request struct {
	Action     Action      `json:"action"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Text       string      `json:"text,omitempty"`
}

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

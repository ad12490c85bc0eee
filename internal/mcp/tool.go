package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"computer-mcp/internal/computer"
)

// ToolName is the name the computer tool is registered under.
const ToolName = "computer"

const toolDescription = "Control the desktop: press key combinations, type text, move and click the mouse, " +
	"drag, read the cursor position and take screenshots. Coordinates are absolute pixels in the " +
	"display size reported by get_screenshot."

func computerSchema() map[string]any {
	actions := computer.Actions()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        names,
				"description": "The action to perform",
			},
			"coordinate": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"minItems":    2,
				"maxItems":    2,
				"description": "[x, y] in pixels; required for mouse_move and left_click_drag",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Key expression such as \"ctrl+shift+s\" for key, literal text for type",
			},
		},
		"required":             []string{"action"},
		"additionalProperties": false,
	}
}

// computerTool pairs the published definition with its compiled schema.
type computerTool struct {
	def    Tool
	schema *jsonschema.Schema
}

func newComputerTool() (*computerTool, error) {
	inputSchema := computerSchema()
	raw, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, err
	}
	compiled, err := jsonschema.CompileString("computer.schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile computer schema: %w", err)
	}
	return &computerTool{
		def: Tool{
			Name:        ToolName,
			Description: toolDescription,
			InputSchema: inputSchema,
		},
		schema: compiled,
	}, nil
}

// decode validates raw arguments against the schema and converts them.
func (t *computerTool) decode(raw json.RawMessage) (computer.Request, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return computer.Request{}, err
	}
	if err := t.schema.Validate(payload); err != nil {
		return computer.Request{}, err
	}

	var req computer.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return computer.Request{}, err
	}
	return req, nil
}

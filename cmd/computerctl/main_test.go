package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"computer-mcp/internal/computer"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"key", "type", "move", "click", "drag", "cursor", "screenshot", "keys"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestClickActionsCoverValidArgs(t *testing.T) {
	cmd := buildClickCmd(new(string))
	for _, arg := range cmd.ValidArgs {
		if _, ok := clickActions[arg]; !ok {
			t.Errorf("click %q has no action", arg)
		}
	}
}

func TestParseCoordinate(t *testing.T) {
	coord, err := parseCoordinate([]string{"10", "-3"})
	if err != nil || coord != (computer.Coordinate{X: 10, Y: -3}) {
		t.Errorf("parseCoordinate() = %v, %v", coord, err)
	}
	if _, err := parseCoordinate([]string{"ten", "3"}); err == nil {
		t.Error("expected error for non-numeric x")
	}
}

func TestKeysCommandListsAliases(t *testing.T) {
	cmd := buildRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keys"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"NAME", "ctrl", "Control_L", "enter", "Return"} {
		if !strings.Contains(text, want) {
			t.Errorf("keys output missing %q", want)
		}
	}
}

func TestWriteScreenshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	payload := []byte("\x89PNG fake")
	resp := computer.Response{
		computer.ImageBlock(base64.StdEncoding.EncodeToString(payload), "image/png"),
		computer.TextBlock(`{"display_width_px":1920,"display_height_px":1080}`),
	}

	var out bytes.Buffer
	if err := writeScreenshot(&out, resp, path); err != nil {
		t.Fatalf("writeScreenshot() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, payload) {
		t.Errorf("file = %q, %v", got, err)
	}
	if !strings.Contains(out.String(), "display_width_px") {
		t.Errorf("output = %s", out.String())
	}

	if err := writeScreenshot(&out, computer.Response{computer.TextBlock("x")}, path); err == nil {
		t.Error("expected error without image block")
	}
}

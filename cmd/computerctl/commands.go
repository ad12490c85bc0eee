package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"computer-mcp/internal/app"
	"computer-mcp/internal/computer"
	"computer-mcp/internal/keys"
)

var clickActions = map[string]computer.Action{
	"left":   computer.ActionLeftClick,
	"right":  computer.ActionRightClick,
	"middle": computer.ActionMiddleClick,
	"double": computer.ActionDoubleClick,
}

func buildKeyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "key <expression>",
		Short:   "Press a key combination such as ctrl+shift+s",
		Args:    cobra.ExactArgs(1),
		Example: "  computerctl key ctrl+alt+t",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, *configPath, computer.Request{Action: computer.ActionKey, Text: args[0]})
		},
	}
}

func buildTypeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "type <text>",
		Short: "Type literal text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, *configPath, computer.Request{Action: computer.ActionType, Text: args[0]})
		},
	}
}

func buildMoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <x> <y>",
		Short: "Move the cursor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseCoordinate(args)
			if err != nil {
				return err
			}
			return runAction(cmd, *configPath, computer.Request{Action: computer.ActionMouseMove, Coordinate: &coord})
		},
	}
}

func buildClickCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "click [left|right|middle|double]",
		Short:     "Click at the current cursor position",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"left", "right", "middle", "double"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "left"
			if len(args) == 1 {
				kind = args[0]
			}
			return runAction(cmd, *configPath, computer.Request{Action: clickActions[kind]})
		},
	}
}

func buildDragCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drag <x> <y>",
		Short: "Drag with the left button from the cursor to x,y",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseCoordinate(args)
			if err != nil {
				return err
			}
			return runAction(cmd, *configPath, computer.Request{Action: computer.ActionLeftClickDrag, Coordinate: &coord})
		},
	}
}

func buildCursorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cursor",
		Short: "Print the cursor position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, *configPath, computer.Request{Action: computer.ActionGetCursorPosition})
		},
	}
}

func buildScreenshotCmd(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Capture the screen and write the encoded PNG to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(*configPath, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			resp, err := a.Executor.Execute(cmd.Context(), computer.Request{Action: computer.ActionGetScreenshot})
			if err != nil {
				return err
			}
			return writeScreenshot(cmd.OutOrStdout(), resp, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "screenshot.png", "File to write the PNG to")
	return cmd
}

func buildKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List accepted key names and the keysym each one sends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printKeys(cmd.OutOrStdout())
		},
	}
}

func runAction(cmd *cobra.Command, configPath string, req computer.Request) error {
	a, err := app.New(configPath, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := a.Executor.Execute(ctx, req)
	if err != nil {
		return err
	}
	return printText(cmd.OutOrStdout(), resp)
}

func parseCoordinate(args []string) (computer.Coordinate, error) {
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return computer.Coordinate{}, fmt.Errorf("invalid x %q: %w", args[0], err)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return computer.Coordinate{}, fmt.Errorf("invalid y %q: %w", args[1], err)
	}
	return computer.Coordinate{X: x, Y: y}, nil
}

func printText(w io.Writer, resp computer.Response) error {
	for _, block := range resp {
		if block.Type != computer.BlockText {
			continue
		}
		if _, err := fmt.Fprintln(w, block.Text); err != nil {
			return err
		}
	}
	return nil
}

// writeScreenshot decodes the image block into path and prints the text
// blocks that describe it.
func writeScreenshot(w io.Writer, resp computer.Response, path string) error {
	for _, block := range resp {
		if block.Type != computer.BlockImage {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(block.Data)
		if err != nil {
			return fmt.Errorf("decode screenshot: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s (%d bytes)\n", path, len(data))
		return printText(w, resp)
	}
	return errors.New("response carried no image")
}

func printKeys(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKEYSYM")
	for _, alias := range keys.Aliases() {
		fmt.Fprintf(tw, "%s\t%s\n", alias.Name, alias.Token.Keysym())
	}
	return tw.Flush()
}

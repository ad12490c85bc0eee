// Command computerctl runs single computer tool actions from a shell, using
// the same configuration and device backend as the MCP servers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "computerctl",
		Short:         "Drive the desktop with computer tool actions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to computer.toml")

	rootCmd.AddCommand(
		buildKeyCmd(&configPath),
		buildTypeCmd(&configPath),
		buildMoveCmd(&configPath),
		buildClickCmd(&configPath),
		buildDragCmd(&configPath),
		buildCursorCmd(&configPath),
		buildScreenshotCmd(&configPath),
		buildKeysCmd(),
	)
	return rootCmd
}

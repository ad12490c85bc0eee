package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"computer-mcp/internal/app"
	"computer-mcp/internal/mcp"
)

// maxMessageSize bounds one newline-delimited request.
const maxMessageSize = 16 << 20

func main() {
	configPath := flag.String("config", "", "path to computer.toml")
	flag.Parse()

	a, err := app.New(*configPath, prometheus.DefaultRegisterer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start computer tool: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.WatchConfig(ctx)

	a.Logger.Info("MCP stdio server ready", "tools", len(a.Server.Tools()))
	if err := serve(ctx, a.Server, os.Stdin, os.Stdout, a.Logger); err != nil {
		a.Logger.Error("stdio loop stopped", "error", err)
		os.Exit(1)
	}
}

// serve reads one JSON-RPC message per line from in and writes each
// response as a single line to out. Requests are handled in order.
func serve(ctx context.Context, server *mcp.Server, in io.Reader, out io.Writer, logger *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	w := bufio.NewWriter(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := server.HandleMessage(ctx, line)
		if resp == nil {
			continue
		}
		if _, err := w.Write(append(resp, '\n')); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		logger.Debug("response sent", "bytes", len(resp))
	}
	return scanner.Err()
}

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// ErrCommandNotAllowed is returned for binaries outside the allow list or
// command lines matching a blocked pattern.
var ErrCommandNotAllowed = errors.New("command not allowed")

// CommandRunner executes allow-listed programs directly, without a shell.
type CommandRunner struct {
	allowed         []string
	blockedPatterns []string
	env             []string
}

func NewCommandRunner(allowed, blockedPatterns []string, display string) *CommandRunner {
	var env []string
	if display != "" {
		env = append(os.Environ(), "DISPLAY="+display)
	}
	return &CommandRunner{
		allowed:         allowed,
		blockedPatterns: blockedPatterns,
		env:             env,
	}
}

// IsAllowed reports whether name may run with args. Arguments after a "--"
// separator are payload (typed text) and are not matched against blocked
// patterns.
func (r *CommandRunner) IsAllowed(name string, args ...string) bool {
	if !slices.Contains(r.allowed, filepath.Base(name)) {
		return false
	}

	checked := args
	if i := slices.Index(args, "--"); i >= 0 {
		checked = args[:i]
	}
	line := strings.Join(append([]string{name}, checked...), " ")
	for _, pattern := range r.blockedPatterns {
		if pattern != "" && strings.Contains(line, pattern) {
			return false
		}
	}
	return true
}

func (r *CommandRunner) ValidateCommand(name string, args ...string) error {
	if !r.IsAllowed(name, args...) {
		return fmt.Errorf("%w: %s", ErrCommandNotAllowed, name)
	}
	return nil
}

// Available reports whether name is allowed and present on PATH.
func (r *CommandRunner) Available(name string) bool {
	if !r.IsAllowed(name) {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name and returns its stdout. On failure the error carries
// the trimmed stderr.
func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.run(ctx, nil, name, args...)
}

// RunWithInput is Run with stdin attached.
func (r *CommandRunner) RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	return r.run(ctx, stdin, name, args...)
}

func (r *CommandRunner) run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if err := r.ValidateCommand(name, args...); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if r.env != nil {
		cmd.Env = r.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

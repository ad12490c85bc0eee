package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"computer-mcp/internal/config"
)

const maxTextPreview = 200

// DebugLogger writes a human-readable trace of every computer action to a
// per-session file. All methods are no-ops when disabled.
type DebugLogger struct {
	enabled     bool
	verbose     bool
	maxBytes    int64
	baseDir     string
	currentFile string
	sessionID   string

	mu sync.Mutex
}

// ActionEntry is one executed (or rejected) computer action.
type ActionEntry struct {
	Timestamp  time.Time
	Action     string
	Coordinate string
	Text       string
	Result     string
	Success    bool
	Error      string
	Duration   time.Duration
}

// ScreenshotEntry describes one screenshot capture.
type ScreenshotEntry struct {
	Timestamp    time.Time
	Width        int
	Height       int
	ScaledWidth  int
	ScaledHeight int
	PayloadBytes int
}

// NewDebugLogger creates a new debug logger
func NewDebugLogger(cfg config.DebugConfig) *DebugLogger {
	baseDir := cfg.LogDir
	if baseDir == "" {
		baseDir = "/tmp/computer-debug"
	}

	if cfg.Enabled {
		os.MkdirAll(baseDir, 0755)
	}

	return &DebugLogger{
		enabled:  cfg.Enabled,
		verbose:  cfg.Verbose,
		maxBytes: int64(cfg.MaxLogMB) * 1024 * 1024,
		baseDir:  baseDir,
	}
}

// StartNewSession creates a new debug session file. An empty sessionID gets
// a random one.
func (dl *DebugLogger) StartNewSession(sessionID string) error {
	if !dl.enabled {
		return nil
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	dl.mu.Lock()
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("session-%s-%s.log", sessionID, timestamp)
	dl.sessionID = sessionID
	dl.currentFile = filepath.Join(dl.baseDir, filename)
	dl.mu.Unlock()

	header := fmt.Sprintf(`
=== COMPUTER ACTION TRACE ===
Session ID: %s
Started: %s
File: %s

`, sessionID, time.Now().Format(time.RFC3339), dl.currentFile)

	return dl.writeToFile(header)
}

// LogAction records one request and its outcome. Typed text is reduced to a
// rune count unless verbose tracing is on.
func (dl *DebugLogger) LogAction(action ActionEntry) error {
	if !dl.enabled {
		return nil
	}

	status := "OK"
	if !action.Success {
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ACTION %s %s (%s)\n", action.Timestamp.Format("15:04:05.000"), action.Action, status, action.Duration.Round(time.Millisecond))
	if action.Coordinate != "" {
		fmt.Fprintf(&b, "Coordinate: %s\n", action.Coordinate)
	}
	if action.Text != "" {
		b.WriteString("Text: " + dl.describeText(action.Text) + "\n")
	}
	if action.Result != "" {
		fmt.Fprintf(&b, "Result: %s\n", action.Result)
	}
	if action.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", action.Error)
	}
	b.WriteString("---\n\n")

	return dl.writeToFile(b.String())
}

// LogScreenshot records the sizes of a capture.
func (dl *DebugLogger) LogScreenshot(shot ScreenshotEntry) error {
	if !dl.enabled {
		return nil
	}

	entry := fmt.Sprintf(`[%s] SCREENSHOT %dx%d sent as %dx%d, %d bytes
---

`, shot.Timestamp.Format("15:04:05.000"), shot.Width, shot.Height, shot.ScaledWidth, shot.ScaledHeight, shot.PayloadBytes)

	return dl.writeToFile(entry)
}

// LogError logs transport or protocol errors that never reached the dispatcher.
func (dl *DebugLogger) LogError(source string, err error, detail string) error {
	if !dl.enabled {
		return nil
	}

	entry := fmt.Sprintf(`[%s] ERROR %s
Context: %s
Error: %s
---

`, time.Now().Format("15:04:05.000"), source, detail, err.Error())

	return dl.writeToFile(entry)
}

func (dl *DebugLogger) describeText(text string) string {
	if !dl.verbose {
		return fmt.Sprintf("<%d runes>", utf8.RuneCountInString(text))
	}
	if utf8.RuneCountInString(text) > maxTextPreview {
		return string([]rune(text)[:maxTextPreview]) + "... [truncated]"
	}
	return text
}

// GetCurrentLogFile returns the path to the current log file
func (dl *DebugLogger) GetCurrentLogFile() string {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.currentFile
}

// SessionID returns the id of the current session.
func (dl *DebugLogger) SessionID() string {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.sessionID
}

// IsEnabled returns whether debugging is enabled
func (dl *DebugLogger) IsEnabled() bool {
	return dl.enabled
}

// writeToFile appends content to the current debug file. Writes stop
// silently once the file reaches the size cap.
func (dl *DebugLogger) writeToFile(content string) error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.currentFile == "" {
		return fmt.Errorf("no debug session started")
	}

	if dl.maxBytes > 0 {
		if info, err := os.Stat(dl.currentFile); err == nil && info.Size() >= dl.maxBytes {
			return nil
		}
	}

	file, err := os.OpenFile(dl.currentFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	return err
}

package config

import (
	"os"
	"strconv"
)

// Debug trace environment variables.
const (
	EnvDebug        = "COMPUTER_DEBUG"
	EnvDebugDir     = "COMPUTER_DEBUG_DIR"
	EnvDebugVerbose = "COMPUTER_DEBUG_VERBOSE"
	EnvDebugMaxMB   = "COMPUTER_DEBUG_MAX_MB"
)

// DebugConfig controls the per-session action trace. Verbose traces keep
// typed text verbatim.
type DebugConfig struct {
	Enabled  bool
	LogDir   string
	Verbose  bool
	MaxLogMB int
}

// GetDebugConfig reads the trace settings from the environment. Values that
// do not parse keep their defaults.
func GetDebugConfig() DebugConfig {
	return DebugConfig{
		Enabled:  envBool(EnvDebug, false),
		LogDir:   envString(EnvDebugDir, "/tmp/computer-debug"),
		Verbose:  envBool(EnvDebugVerbose, false),
		MaxLogMB: envPositiveInt(EnvDebugMaxMB, 10),
	}
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// envBool accepts anything strconv.ParseBool does ("1", "true", "T", ...).
func envBool(name string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return fallback
	}
	return v
}

func envPositiveInt(name string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default lookup locations, tried in order when no path is given.
var searchPaths = []string{"/app/config/computer.toml", "config/computer.toml"}

// Compressor names accepted in [screenshot] compressor.
const (
	CompressorQuantize = "quantize"
	CompressorPngquant = "pngquant"
)

type Config struct {
	Server       ServerSection       `toml:"server"`
	Screenshot   ScreenshotSection   `toml:"screenshot"`
	Commands     CommandsSection     `toml:"commands"`
	Restrictions RestrictionsSection `toml:"restrictions"`
	Backend      BackendSection      `toml:"backend"`
	Logging      LoggingSection      `toml:"logging"`
}

type ServerSection struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	HTTPAddr string `toml:"http_addr"`
	WSAddr   string `toml:"ws_addr"`
}

type ScreenshotSection struct {
	SettleDelay     Duration `toml:"settle_delay"`
	PixelBudget     int      `toml:"pixel_budget"`
	Compressor      string   `toml:"compressor"`
	Colors          int      `toml:"colors"`
	PngquantQuality string   `toml:"pngquant_quality"`
}

type CommandsSection struct {
	Allowed []string `toml:"allowed"`
}

type RestrictionsSection struct {
	BlockedPatterns []string `toml:"blocked_patterns"`
}

type BackendSection struct {
	TypeDelayMS int    `toml:"type_delay_ms"`
	Display     string `toml:"display"`
	ScratchDir  string `toml:"scratch_dir"`
}

type LoggingSection struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ResolvePath picks the configuration file: explicit path, then
// COMPUTER_CONFIG, then the first default location that exists. The
// returned path may not exist, in which case Load uses defaults.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("COMPUTER_CONFIG"); env != "" {
		return env
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return searchPaths[len(searchPaths)-1]
}

// Load reads the configuration at path. A missing file yields the defaults.
// Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if level := os.Getenv("COMPUTER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
	if port := os.Getenv("WS_PORT"); port != "" {
		cfg.Server.WSAddr = ":" + port
	}
	if display := os.Getenv("COMPUTER_DISPLAY"); display != "" {
		cfg.Backend.Display = display
	}
}

func (cfg *Config) validate() error {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "computer-mcp"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}

	shot := &cfg.Screenshot
	if shot.SettleDelay.Duration < 0 {
		return fmt.Errorf("screenshot.settle_delay must not be negative, got %s", shot.SettleDelay)
	}
	if shot.PixelBudget < 0 {
		return fmt.Errorf("screenshot.pixel_budget must not be negative, got %d", shot.PixelBudget)
	}
	if shot.PixelBudget == 0 {
		shot.PixelBudget = 1366 * 768
	}
	if shot.Compressor == "" {
		shot.Compressor = CompressorQuantize
	}
	if shot.Compressor != CompressorQuantize && shot.Compressor != CompressorPngquant {
		return fmt.Errorf("screenshot.compressor must be %q or %q, got %q", CompressorQuantize, CompressorPngquant, shot.Compressor)
	}
	if shot.Colors == 0 {
		shot.Colors = 256
	}
	if shot.Colors < 2 || shot.Colors > 256 {
		return fmt.Errorf("screenshot.colors must be between 2 and 256, got %d", shot.Colors)
	}

	if cfg.Backend.TypeDelayMS < 0 {
		return fmt.Errorf("backend.type_delay_ms must not be negative, got %d", cfg.Backend.TypeDelayMS)
	}

	if len(cfg.Commands.Allowed) == 0 {
		return fmt.Errorf("at least one allowed command is required")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "":
		cfg.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerSection{
			Name:     "computer-mcp",
			Version:  "1.0.0",
			HTTPAddr: ":8080",
			WSAddr:   ":8081",
		},
		Screenshot: ScreenshotSection{
			SettleDelay:     Duration{time.Second},
			PixelBudget:     1366 * 768,
			Compressor:      CompressorQuantize,
			Colors:          256,
			PngquantQuality: "65-80",
		},
		Commands: CommandsSection{
			Allowed: []string{"xdotool", "gnome-screenshot", "scrot", "import", "pngquant"},
		},
		Restrictions: RestrictionsSection{
			BlockedPatterns: []string{"sudo", "rm -rf", ";", "&&", "|", "`", "$("},
		},
		Backend: BackendSection{
			TypeDelayMS: 12,
		},
		Logging: LoggingSection{
			Level:  "info",
			Format: "text",
		},
	}
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docweave/internal/units"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	LogLevel slog.Level

	// Document defaults applied when a template sets none
	DefaultFont string
	DefaultSize units.FontSize

	// Request limits
	MaxTemplateBytes int64
	FetchTimeout     time.Duration

	// Export worker pool
	ExportWorkers   int
	ExportQueueSize int
	ExportTTL       time.Duration

	// Preview
	SanitizePreview bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		APIKey: os.Getenv("DOCWEAVE_API_KEY"),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		DefaultFont: envOr("DEFAULT_FONT", "宋体"),
		DefaultSize: envFontSize("DEFAULT_SIZE", units.Named("五号")),

		MaxTemplateBytes: envInt64("MAX_TEMPLATE_BYTES", 8<<20), // 8MB
		FetchTimeout:     envDuration("FETCH_TIMEOUT", 30*time.Second),

		ExportWorkers:   envInt("EXPORT_WORKERS", 2),
		ExportQueueSize: envInt("EXPORT_QUEUE_SIZE", 32),
		ExportTTL:       envDuration("EXPORT_TTL", 30*time.Minute),

		SanitizePreview: envBool("SANITIZE_PREVIEW", true),
	}

	if cfg.MaxTemplateBytes <= 0 {
		cfg.MaxTemplateBytes = 8 << 20
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.ExportWorkers <= 0 {
		cfg.ExportWorkers = 2
	}
	if cfg.ExportQueueSize <= 0 {
		cfg.ExportQueueSize = 32
	}
	if cfg.ExportTTL <= 0 {
		cfg.ExportTTL = 30 * time.Minute
	}

	return cfg
}

// Validate reports settings that cannot work together. An empty API key is
// allowed and disables authentication.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %q", c.Port)
	}
	if _, ok := c.DefaultSize.PointSize(); !ok && !c.DefaultSize.IsZero() {
		return fmt.Errorf("DEFAULT_SIZE %q is not a known size", c.DefaultSize)
	}
	if c.ExportQueueSize < c.ExportWorkers {
		return fmt.Errorf("EXPORT_QUEUE_SIZE (%d) must be at least EXPORT_WORKERS (%d)", c.ExportQueueSize, c.ExportWorkers)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(v))); err == nil {
			return l
		}
	}
	return fallback
}

// envFontSize keeps unparseable values as names so Validate can report them.
func envFontSize(key string, fallback units.FontSize) units.FontSize {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	fs, err := units.ParseFontSize(v)
	if err != nil {
		return units.Named(v)
	}
	return fs
}

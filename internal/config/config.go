// Package config provides configuration management for uiproof.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration structure for uiproof.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind the server to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	// Enable CORS
	CORS CORSConfig `mapstructure:"cors"`

	// Request timeout
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Maximum request body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// Address returns the host:port address to listen on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enable CORS
	Enabled bool `mapstructure:"enabled"`

	// Allowed origins (use ["*"] for all)
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// Allow credentials
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// Max age for preflight cache
	MaxAge time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Busy timeout in milliseconds
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Enable foreign keys
	ForeignKeys bool `mapstructure:"foreign_keys"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// Connection max lifetime
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BrowserConfig holds default browser automation settings.
type BrowserConfig struct {
	// Default browser engine: chromium, firefox or webkit
	Engine string `mapstructure:"engine"`

	// Run without a visible window
	Headless bool `mapstructure:"headless"`

	// Viewport size as "WIDTHxHEIGHT", e.g. "1920x1080"
	WindowSize string `mapstructure:"window_size"`

	// Timeout applied to every step action
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// Timeout applied to page navigations
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// ArtifactsConfig holds paths for generated files.
type ArtifactsConfig struct {
	// Directory for failure screenshots
	ScreenshotsDir string `mapstructure:"screenshots_dir"`

	// Directory for generated HTML reports
	ReportsDir string `mapstructure:"reports_dir"`
}

// SchedulerConfig holds scheduled execution settings.
type SchedulerConfig struct {
	// Enable the schedule poller
	Enabled bool `mapstructure:"enabled"`

	// How often to poll for due schedules
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Output format: console or json
	Format string `mapstructure:"format"`

	// Include caller information
	Caller bool `mapstructure:"caller"`

	// Include timestamps
	Timestamp bool `mapstructure:"timestamp"`
}

// Viewport is a parsed window size.
type Viewport struct {
	Width  int
	Height int
}

// ParseWindowSize parses a "WIDTHxHEIGHT" string into a Viewport. Anything
// that does not parse to two positive dimensions falls back to 1920x1080.
func ParseWindowSize(size string) Viewport {
	w, h, ok := strings.Cut(size, "x")
	if ok {
		width, werr := strconv.Atoi(w)
		height, herr := strconv.Atoi(h)
		if werr == nil && herr == nil && width > 0 && height > 0 {
			return Viewport{Width: width, Height: height}
		}
	}
	return Viewport{Width: 1920, Height: 1080}
}

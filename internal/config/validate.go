package config

import (
	"fmt"
	"regexp"
)

var windowSizePattern = regexp.MustCompile(`^\d+x\d+$`)

var validEngines = map[string]bool{
	"chromium": true,
	"firefox":  true,
	"webkit":   true,
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for values that would fail at runtime.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be 1-65535, got %d", ErrInvalidConfig, cfg.Server.Port)
	}

	if cfg.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}

	if !validEngines[cfg.Browser.Engine] {
		return fmt.Errorf("%w: browser.engine must be chromium, firefox or webkit, got %q", ErrInvalidConfig, cfg.Browser.Engine)
	}

	if !windowSizePattern.MatchString(cfg.Browser.WindowSize) {
		return fmt.Errorf("%w: browser.window_size must look like 1920x1080, got %q", ErrInvalidConfig, cfg.Browser.WindowSize)
	}

	if cfg.Browser.StepTimeout <= 0 {
		return fmt.Errorf("%w: browser.step_timeout must be positive", ErrInvalidConfig)
	}

	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("%w: browser.navigation_timeout must be positive", ErrInvalidConfig)
	}

	if cfg.Logging.Level != "" && !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("%w: logging.level %q is not a valid level", ErrInvalidConfig, cfg.Logging.Level)
	}

	return nil
}

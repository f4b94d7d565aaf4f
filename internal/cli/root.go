// Package cli implements the uiproof command line interface.
package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/uiproof/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "uiproof",
	Short: "Browser-based UI test execution engine",
	Long: `uiproof runs browser-based UI test cases against real browsers and
records per-step and per-case outcomes, screenshots and reports.

Start the API server:
  uiproof serve

Run all test cases once from the command line:
  uiproof run --mode batch

Import test cases from a YAML file:
  uiproof cases import cases.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./uiproof.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig loads config from the --config flag or the default search
// paths, falling back to defaults when no file exists.
func loadConfig() *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	return cfg
}

func setupLogging() {
	cfg := loadConfig()

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil {
		level = parsed
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr)
	if cfg.Logging.Format != "json" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logCtx := logger.With()
	if cfg.Logging.Timestamp {
		logCtx = logCtx.Timestamp()
	}
	if cfg.Logging.Caller {
		logCtx = logCtx.Caller()
	}
	log.Logger = logCtx.Logger()
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tessro/cody"
	"github.com/tessro/cody/internal/config"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg     *config.Config
	app     *cody.Cody
	logger  *log.Logger
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "cody",
	Short: "Control Spotify and your desktop player from the command line",
	Long: `Cody drives the Spotify Web API and the local desktop player from one CLI.

Spotify credentials come from the config file, a .env file or CODY_SPOTIFY_*
environment variables. Run 'cody auth login' to obtain a refresh token.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.codyrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = newLogger(cfg.Log)
	if err != nil {
		return err
	}

	app = cody.New(cfg, cody.WithLogger(logger))
	return nil
}

func newLogger(lc config.LogConfig) (*log.Logger, error) {
	level := logging.ParseLevel(lc.Level)
	if verbose {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		w = f
	}
	return logging.New(w, level), nil
}

func shutdown() {
	if app != nil {
		app.Close()
		app = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, cerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

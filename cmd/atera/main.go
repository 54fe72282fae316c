// Package main provides the atera binary entry point.
// Atera checks, fixes and edits the activity documents of a data root.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/c360studio/atera/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "atera"
)

// errValidationFailed is returned when a validation run has findings that
// fail it. The findings themselves have already been printed.
var errValidationFailed = errors.New("validation failed")

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := newRootCmd(defaultEnvironment()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// environment holds what the commands read from and write to.
type environment struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// loaderOpts customize config discovery.
	loaderOpts []config.LoaderOption
}

func defaultEnvironment() *environment {
	return &environment{
		fs:     afero.NewOsFs(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// cli carries the global flags and the application built from them.
type cli struct {
	env *environment

	configPath string
	dataRoot   string
	logLevel   string
	noColor    bool

	app *App
}

func newRootCmd(env *environment) *cobra.Command {
	c := &cli{env: env}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Activity document toolkit",
		Long: `Atera checks, fixes and edits the JSON activity documents of a data root.

It provides:
- Validation of locations, points, attestation, categories and tags
- Normalization of the narrative text
- Marker reference checks and compilation
- Attestation score suggestions
- Structural edits of sections, points, images, tags and location`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	cmd.SetIn(env.stdin)
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&c.dataRoot, "data-root", "", "Data root holding activities and definitions")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		c.validateCmd(),
		c.sanitizeCmd(),
		c.normalizeCmd(),
		c.markerCmd(),
		c.suggestCmd(),
		c.sectionCmd(),
		c.pointCmd(),
		c.imageCmd(),
		c.tagCmd(),
		c.removeCmd(),
		c.locationCmd(),
		c.activitiesCmd(),
		c.newCmd(),
		c.exportCmd(),
		c.watchCmd(),
		c.configCmd(),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// setup configures logging and builds the application for a command.
func (c *cli) setup(cmd *cobra.Command) error {
	logger := newLogger(c.env.stderr, c.logLevel)
	slog.SetDefault(logger)

	cfg, err := c.loadConfig(logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c.app = NewApp(cfg, c.env.fs, logger, cmd.OutOrStdout(), !c.noColor)
	logger.Debug("Configuration loaded",
		"data_root", cfg.Data.Root,
		"activities", cfg.ActivitiesPath(),
		"definitions", cfg.DefinitionsPath())
	return nil
}

func (c *cli) loadConfig(logger *slog.Logger) (*config.Config, error) {
	var cfg *config.Config
	if c.configPath != "" {
		fileCfg, err := config.LoadFromFile(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = config.DefaultConfig()
		cfg.Merge(fileCfg)
		if cfg.Data.Root == "" {
			cfg.Data.Root = filepath.Dir(c.configPath)
		}
	} else {
		var err error
		if cfg, err = config.NewLoader(logger, c.env.loaderOpts...).Load(); err != nil {
			return nil, err
		}
	}

	if c.dataRoot != "" {
		cfg.Data.Root = c.dataRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

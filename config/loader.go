package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "atera.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/atera"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvDataRoot overrides data.root
	EnvDataRoot = "ATERA_DATA_ROOT"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	// workDir is where the project config search starts (cwd when empty)
	workDir string
	// homeDir holds the user config (user home when empty)
	homeDir string
	getenv  func(string) string
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithWorkDir sets the directory the project config search starts from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithHomeDir sets the directory holding the user config.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithGetenv replaces the environment lookup.
func WithGetenv(getenv func(string) string) LoaderOption {
	return func(l *Loader) { l.getenv = getenv }
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, getenv: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/atera/config.yaml)
// 3. Project config (atera.yaml in current or parent directories)
// 4. Environment variables (ATERA_DATA_ROOT)
//
// Command line flags are applied by the caller on the returned config.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		// The directory of atera.yaml is the default data root
		if projectConfig.Data.Root == "" {
			projectConfig.Data.Root = filepath.Dir(projectConfigPath)
		}
		config.Merge(projectConfig)
	} else {
		l.logger.Debug("No project config found")
	}

	if root := l.getenv(EnvDataRoot); root != "" {
		l.logger.Debug("Data root from environment", slog.String("path", root))
		config.Data.Root = root
	}

	// Fall back to current directory
	if config.Data.Root == "" {
		if cwd, err := l.cwd(); err == nil {
			config.Data.Root = cwd
			l.logger.Debug("Using current directory as data root", slog.String("path", cwd))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() (string, error) {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return userConfigPath, nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return "", err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return userConfigPath, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

func (l *Loader) cwd() (string, error) {
	if l.workDir != "" {
		return l.workDir, nil
	}
	return os.Getwd()
}

// findProjectConfig searches for atera.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	dir, err := l.cwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

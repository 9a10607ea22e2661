// Package settings holds the shell's configuration file and the persistent
// key/value store the frontend uses for preferences.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const appDirName = "HamstiLogViewer"

// Config is read from config.toml in the application directory.
type Config struct {
	LogLevel string        `toml:"log_level"`
	LogDir   string        `toml:"log_dir"`
	Updater  UpdaterConfig `toml:"updater"`
}

// UpdaterConfig toggles and points the update flow.
type UpdaterConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	PubKey   string `toml:"pubkey"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(appDir string) Config {
	return Config{
		LogLevel: "info",
		LogDir:   filepath.Join(appDir, "logs"),
	}
}

// AppDir returns <UserConfigDir>/HamstiLogViewer, or ./HamstiLogViewer if the
// user config dir cannot be determined.
func AppDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, appDirName)
}

// LoadConfig reads path on top of the defaults and applies environment
// overrides. A missing file is not an error.
func LoadConfig(path, appDir string) (Config, error) {
	cfg := DefaultConfig(appDir)

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if cfg.Updater.Enabled && cfg.Updater.Endpoint == "" {
		return cfg, errors.New("updater enabled but no endpoint configured")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOGVIEWER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	switch strings.ToLower(os.Getenv("LOGVIEWER_UPDATER")) {
	case "on", "1", "true":
		cfg.Updater.Enabled = true
	case "off", "0", "false":
		cfg.Updater.Enabled = false
	}
}

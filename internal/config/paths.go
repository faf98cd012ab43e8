package config

import (
	"os"
	"path/filepath"

	"github.com/maseology/mmio"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "FLOODBATCH_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "floodbatch.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "floodbatch"
)

// FindConfigPath searches for config file in priority order:
// 1. $FLOODBATCH_CONFIG (explicit path)
// 2. ./floodbatch.yaml (working directory)
// 3. $XDG_CONFIG_HOME/floodbatch/config.yaml
// 4. ~/.config/floodbatch/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	// 1. Explicit environment variable
	if path := os.Getenv(EnvConfigPath); path != "" {
		if _, ok := mmio.FileExists(path); ok {
			return path
		}
	}

	// 2. Working directory
	if _, ok := mmio.FileExists(ConfigFileName); ok {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	// 3. XDG config home
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if _, ok := mmio.FileExists(path); ok {
			return path
		}
	}

	// 4. Default XDG location (~/.config)
	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if _, ok := mmio.FileExists(path); ok {
			return path
		}
	}

	return ""
}

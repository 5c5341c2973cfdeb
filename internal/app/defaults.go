package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables that locate the config file and data directory.
const (
	EnvConfigPath = "JOBSYNC_CONFIG_PATH"
	EnvHome       = "JOBSYNC_HOME"
)

// EnvFileName is the optional dotenv file read from the base directory.
const EnvFileName = ".env"

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - JOBSYNC_CONFIG_PATH: config file location (default: ~/.config/jobsync.toml)
//   - JOBSYNC_HOME: base directory for jobsync data (default: ~/.local/share/jobsync)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"env_file":    filepath.Join(baseDir, EnvFileName),
	}, nil
}

// LoadEnvFile loads variables from the dotenv file at path into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// getConfigPath returns the config file path, checking JOBSYNC_CONFIG_PATH first,
// then falling back to the default ~/.config/jobsync.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "jobsync.toml"), nil
}

// getBaseDir returns the base directory for jobsync data, checking JOBSYNC_HOME
// first, then falling back to the XDG default ~/.local/share/jobsync.
func getBaseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "jobsync"), nil
}

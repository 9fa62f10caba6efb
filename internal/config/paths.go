package config

import (
	"os"
	"path/filepath"
)

// GetRelayDir returns the relaypoll base directory.
// RELAYPOLL_HOME wins, then the OS config directory, then the current directory.
func GetRelayDir() string {
	if home := os.Getenv("RELAYPOLL_HOME"); home != "" {
		return home
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".relaypoll"
	}
	return filepath.Join(dir, "relaypoll")
}

// GetStateDir returns the directory holding the relay job database.
func GetStateDir() string {
	return filepath.Join(GetRelayDir(), "state")
}

// GetLogsDir returns the directory holding debug logs.
func GetLogsDir() string {
	return filepath.Join(GetRelayDir(), "logs")
}

// GetRuntimeDir returns the directory for pid, port and lock files.
func GetRuntimeDir() string {
	return GetRelayDir()
}

// EnsureDirs creates every relaypoll directory.
func EnsureDirs() error {
	for _, dir := range []string{GetRelayDir(), GetStateDir(), GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

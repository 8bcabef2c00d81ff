package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.zenith/logs, or a temp-dir fallback when the home
// directory cannot be resolved.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".zenith", "logs")
	}
	return filepath.Join(home, ".zenith", "logs")
}

// DefaultLogPath returns the log file shared by all zen commands.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "zen.log")
}

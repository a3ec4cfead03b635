package litetable

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	litetableDir = ".litetable"
	// DirEnv overrides the LiteTable directory, mostly for running several emulators side by side.
	DirEnv = "LITETABLE_DIR"
)

// GetLitetableDir returns the directory holding the emulator configuration: $LITETABLE_DIR when
// set, ~/.litetable otherwise.
func GetLitetableDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return filepath.Clean(dir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, litetableDir), nil
}

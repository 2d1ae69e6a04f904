// ABOUTME: XDG-based data directory resolution for the chorus CLI.
// ABOUTME: Checks XDG_DATA_HOME, falls back to ~/.local/share/chorus.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDataDir returns the default data directory for chorus persistent
// state (the SQLite message index). It checks XDG_DATA_HOME first, then
// falls back to ~/.local/share/chorus.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "chorus"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "chorus"), nil
}

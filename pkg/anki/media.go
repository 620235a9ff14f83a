package anki

import (
	"fmt"
	"path/filepath"
)

// DefaultMediaDir returns the collection.media directory of the default Anki
// profile for the given GOOS and home directory.
func DefaultMediaDir(goos, home string) (string, error) {
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Anki2", "User 1", "collection.media"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Anki2", "User 1", "collection.media"), nil
	case "linux":
		return filepath.Join(home, ".local", "share", "Anki2", "User 1", "collection.media"), nil
	}
	return "", fmt.Errorf("unsupported operating system %q", goos)
}

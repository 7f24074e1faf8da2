package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the name of the application used in paths
	AppName = "photomirror"
)

// GetConfigDir returns the platform-specific configuration directory for the
// application. Session state (cookies, client id) lives next to the config.
// On Linux: ~/.config/photomirror/
// On macOS: ~/Library/Application Support/photomirror/
// On Windows: %LOCALAPPDATA%\photomirror\
func GetConfigDir() (string, error) {
	base, err := getAppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// getAppDataDir returns the platform-specific base data directory.
func getAppDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
		return localAppData, nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil

	default: // Linux, BSD, etc.
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return xdgConfigHome, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	}
}

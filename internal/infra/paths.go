package infra

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	AppName = "coinwatch"
)

// GetDataDir returns the root directory for runtime data (database, icon cache).
// A local "_workspace" directory takes priority (portable/dev mode).
func GetDataDir() string {
	localDir := "_workspace"
	if _, err := os.Stat(localDir); err == nil {
		return localDir
	}

	var baseDir string
	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir, _ = os.UserConfigDir()
		}
	case "linux":
		// XDG_DATA_HOME, falling back to ~/.local/share
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".local", "share")
		}
	default:
		baseDir, _ = os.UserConfigDir()
	}

	if baseDir == "" {
		return localDir
	}
	return filepath.Join(baseDir, AppName)
}

// ResolveConfigPath attempts to find config.yaml.
// Priority: 1. explicit flag, 2. ./configs, 3. OS config dir
func ResolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	defaultPath := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	if configRoot, err := os.UserConfigDir(); err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}

	// Let LoadConfig report the missing file
	return defaultPath
}

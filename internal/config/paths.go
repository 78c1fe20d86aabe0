package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// SearchDirs returns the directories Load searches for FileName, in
// precedence order: the given checkout roots, then the user config dir.
func SearchDirs(roots ...string) []string {
	var dirs []string

	// 1. Environment variable override (highest precedence)
	if envPath := os.Getenv("TANDEM_CONFIG"); envPath != "" {
		dirs = append(dirs, filepath.Dir(envPath))
	}

	// 2. Checkout roots (project-specific config)
	for _, root := range roots {
		if root != "" {
			dirs = append(dirs, root)
		}
	}

	// 3. User config directory (platform-specific)
	if userConfigDir := getUserConfigDir(); userConfigDir != "" {
		dirs = append(dirs, userConfigDir)
	}

	return dirs
}

// getUserConfigDir returns the user's config directory based on platform
func getUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tandem")
		}
		return ""
	case "darwin":
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, "Library", "Application Support", "tandem")
		}
		return ""
	default:
		// Follow XDG Base Directory specification
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "tandem")
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, ".config", "tandem")
		}
		return ""
	}
}

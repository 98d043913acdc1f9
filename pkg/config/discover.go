package config

import (
	"os"
	"path/filepath"
)

// Discover walks up from dir looking for a covview.yaml. It returns the
// loaded config and the directory it was found in. When no file exists
// anywhere up the tree, defaults anchored at dir are returned.
func Discover(dir string) (Config, string, error) {
	root, ok := findConfigRoot(dir)
	if !ok {
		cfg := Default()
		cfg.Profile = filepath.Join(dir, cfg.Profile)
		cfg.StateDir = filepath.Join(dir, cfg.StateDir)
		return cfg, dir, nil
	}

	cfg, err := Load(filepath.Join(root, ConfigFileName))
	if err != nil {
		return Config{}, "", err
	}
	return cfg, root, nil
}

// DiscoverCurrent is Discover anchored at the working directory.
func DiscoverCurrent() (Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return Config{}, "", err
	}
	return Discover(dir)
}

// findConfigRoot walks up from dir looking for covview.yaml.
func findConfigRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

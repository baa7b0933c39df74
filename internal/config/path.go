// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path, so
// cache and database locations in config files can use either form.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultCachePath returns the default location of the persisted LEI
// cache for the current user.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lei_cache.json"
	}
	return filepath.Join(home, ".local", "share", "leiflow", "lei_cache.json")
}

package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	path := os.Getenv("VOXMEM_RUNTIME_PATH")
	if path == "" {
		path = ".voxmem"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func IsDebug() bool {
	return os.Getenv("VOXMEM_DEBUG") == "1"
}

package util

import (
	"errors"
	"io/fs"
	"os"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates path and its parents if needed.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

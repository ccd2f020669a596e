package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File persists each document as one file under a directory. Writes go
// through a temp file and rename so a crashed write never leaves a
// half-serialized document behind.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read document: %w", err)
	}
	return data, true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	path := f.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

func (f *File) Close() error {
	return nil
}

func (f *File) path(key string) string {
	// Keys are fixed well-known names, but keep path separators out anyway.
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}

package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store implementation persisting to a single JSON document.
// Writes go through a temporary file followed by rename, so a crash mid-write
// leaves either the old document or the new one, never a torn record.
// Safe for concurrent use within one process; not safe for concurrent writers
// across processes.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file-backed store at path. The file is created lazily on
// the first write; its parent directory must exist or be creatable.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("kv: file path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("kv: create store directory: %w", err)
	}
	return &File{path: path}, nil
}

// Get returns the value for key, or ErrKeyNotFound.
func (f *File) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// SetAll stores every entry of values in one read-modify-rename cycle.
func (f *File) SetAll(ctx context.Context, values map[string]string) error {
	for key := range values {
		if key == "" {
			return ErrEmptyKey
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	maps.Copy(current, values)
	return f.write(current)
}

// DeleteAll removes the given keys in one read-modify-rename cycle.
func (f *File) DeleteAll(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(current, key)
	}
	return f.write(current)
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("kv: read store file: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		// A corrupt store file fails safe to empty rather than poisoning
		// every subsequent read.
		return make(map[string]string), nil
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("kv: encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".portalkit-*")
	if err != nil {
		return fmt.Errorf("kv: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("kv: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: replace store file: %w", err)
	}
	return nil
}

// Package store persists the canonical graph document.
//
// A [Store] reads and writes the whole document at once. [FileStore] writes
// through a temporary file and a rename, so readers never observe a partial
// document. [Memory] keeps the document in memory for tests and embedding.
package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// Store reads and writes a whole serialized document.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Location describes where the document lives, for logs and messages.
	Location() string
}

// FileStore keeps the document in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the document at path. The file does not
// need to exist until the first Read.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read returns the file contents. A missing file yields FILE_NOT_FOUND.
func (s *FileStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "model %s does not exist", s.path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", s.path)
	}
	return data, nil
}

// Write replaces the file atomically. Parent directories are created.
func (s *FileStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create temp file in %s", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "chmod %s", tmpPath)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "replace %s", s.path)
	}
	return nil
}

// Location returns the file path.
func (s *FileStore) Location() string { return s.path }

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory returns a store holding a copy of initial. A nil initial value
// behaves like a missing file.
func NewMemory(initial []byte) *Memory {
	return &Memory{data: bytes.Clone(initial)}
}

// Read returns a copy of the stored document.
func (m *Memory) Read(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, errors.New(errors.ErrCodeFileNotFound, "model is empty")
	}
	return bytes.Clone(m.data), nil
}

// Write replaces the stored document with a copy of data.
func (m *Memory) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = bytes.Clone(data)
	return nil
}

// Location returns "memory".
func (m *Memory) Location() string { return "memory" }

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*Memory)(nil)
)

package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// FileStore keeps snapshots as files in a directory.
// Files are sharded by the first two hash characters to avoid too many
// files in one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create snapshot dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// fileEntry wraps snapshot data with metadata.
type fileEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"data"`
}

// Put stores data under its hash.
func (s *FileStore) Put(ctx context.Context, data []byte) (Entry, error) {
	hash := Hash(data)
	path := s.path(hash)

	if existing, err := s.read(path); err == nil {
		return Entry{Hash: hash, Size: len(existing.Data), CreatedAt: existing.CreatedAt}, nil
	}

	entry := fileEntry{CreatedAt: time.Now().UTC(), Data: data}
	entryData, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, entryData, 0644); err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInternal, err, "write snapshot %s", hash)
	}
	return Entry{Hash: hash, Size: len(data), CreatedAt: entry.CreatedAt}, nil
}

// Get returns the data stored under hash.
func (s *FileStore) Get(ctx context.Context, hash string) ([]byte, error) {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return nil, err
	}
	entry, err := s.read(s.path(hash))
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// read loads an entry file. Unreadable entries are removed and reported as
// missing.
func (s *FileStore) read(path string) (fileEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fileEntry{}, ErrNotFound
	}
	if err != nil {
		return fileEntry{}, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return fileEntry{}, ErrNotFound
	}
	return entry, nil
}

// List returns all snapshots, newest first.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	shards, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list %s", s.dir)
	}

	var out []Entry
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, shard.Name()))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "list shard %s", shard.Name())
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name, ok := strings.CutSuffix(f.Name(), ".json")
			if !ok || f.IsDir() {
				continue
			}
			hash := shard.Name() + name
			entry, err := s.read(s.path(hash))
			if err != nil {
				continue
			}
			out = append(out, Entry{Hash: hash, Size: len(entry.Data), CreatedAt: entry.CreatedAt})
		}
	}

	sortNewestFirst(out)
	return out, nil
}

// Delete removes a snapshot.
func (s *FileStore) Delete(ctx context.Context, hash string) error {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return err
	}
	err := os.Remove(s.path(hash))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(hash string) string {
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

func sortNewestFirst(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Hash < entries[j].Hash
	})
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

// Package snapshot keeps a content-addressed history of graph documents.
//
// Every saved document is stored under the SHA-256 hash of its canonical
// encoding, so saving the same document twice is a no-op and a hash always
// names exactly one document. Snapshots are what `nmcanvas diff` resolves
// `snapshot:<hash>` references against.
//
// # Backends
//
//   - [FileStore]: hash-sharded JSON files under a directory (CLI default)
//   - [RedisStore]: string keys plus a sorted set index
//   - [MongoStore]: one document per snapshot in a collection
//   - [NullStore]: stores nothing; snapshots disabled
//
// All backends return [ErrNotFound] for unknown hashes and reject malformed
// hashes before touching storage.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// Store is a content-addressed snapshot backend.
type Store interface {
	// Put stores data and returns its entry. Storing existing content keeps
	// the original creation time.
	Put(ctx context.Context, data []byte) (Entry, error)
	// Get returns the data stored under hash.
	Get(ctx context.Context, hash string) ([]byte, error)
	// List returns all entries, newest first.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes the snapshot. Deleting an unknown hash is not an error.
	Delete(ctx context.Context, hash string) error
	Close() error
}

// Entry describes a stored snapshot.
type Entry struct {
	Hash      string    `json:"hash"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Short returns the first 12 characters of the hash.
func (e Entry) Short() string {
	if len(e.Hash) <= 12 {
		return e.Hash
	}
	return e.Hash[:12]
}

// Hash computes the SHA-256 hash of data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveGraph stores the canonical encoding of g.
func SaveGraph(ctx context.Context, s Store, g *graph.Graph) (Entry, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	return s.Put(ctx, data)
}

// LoadGraph decodes the snapshot stored under hash.
func LoadGraph(ctx context.Context, s Store, hash string) (*graph.Graph, error) {
	data, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot %s", hash)
	}
	return g, nil
}

// RefPrefix marks a document reference that names a snapshot.
const RefPrefix = "snapshot:"

// ParseRef splits "snapshot:<hash>" references. ok is false for anything
// else, which callers treat as a file path.
func ParseRef(ref string) (hash string, ok bool) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, RefPrefix), true
}

// Resolve expands an abbreviated hash to the full hash of the single
// snapshot it prefixes.
func Resolve(ctx context.Context, s Store, prefix string) (string, error) {
	if len(prefix) == errors.HashLength {
		if err := errors.ValidateSnapshotHash(prefix); err != nil {
			return "", err
		}
		return prefix, nil
	}
	if len(prefix) < 4 {
		return "", errors.New(errors.ErrCodeInvalidInput, "snapshot prefix %q is too short (min 4 characters)", prefix)
	}

	entries, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, e := range entries {
		if !strings.HasPrefix(e.Hash, prefix) {
			continue
		}
		if match != "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "snapshot prefix %q is ambiguous", prefix)
		}
		match = e.Hash
	}
	if match == "" {
		return "", ErrNotFound
	}
	return match, nil
}

package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

const (
	// DefaultRedisPrefix namespaces snapshot keys: {prefix}snapshot:{hash}.
	DefaultRedisPrefix = "nmcanvas:"

	snapshotKeyPart = "snapshot:" // one string key per snapshot
	indexKeyPart    = "snapshots" // sorted set of hashes scored by creation time
)

// RedisStore keeps snapshots in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedis connects to the server named by a redis:// URL and checks the
// connection.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis %s", opts.Addr)
	}
	return NewRedisStore(client, prefix), nil
}

// redisEntry is the JSON value stored per snapshot.
type redisEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"data"`
}

// Put stores data under its hash. Existing snapshots are left untouched.
func (s *RedisStore) Put(ctx context.Context, data []byte) (Entry, error) {
	hash := Hash(data)
	entry := redisEntry{CreatedAt: time.Now().UTC(), Data: data}
	value, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var created bool
	err = RetryWithBackoff(ctx, func() error {
		pipe := s.client.TxPipeline()
		setCmd := pipe.SetNX(ctx, s.snapshotKey(hash), value, 0)
		pipe.ZAddNX(ctx, s.indexKey(), redis.Z{Score: float64(entry.CreatedAt.UnixNano()), Member: hash})
		if _, err := pipe.Exec(ctx); err != nil {
			return classify(err)
		}
		created = setCmd.Val()
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to store snapshot: %w", err)
	}

	if !created {
		existing, err := s.entry(ctx, hash)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Hash: hash, Size: len(existing.Data), CreatedAt: existing.CreatedAt}, nil
	}
	return Entry{Hash: hash, Size: len(data), CreatedAt: entry.CreatedAt}, nil
}

// Get returns the data stored under hash.
func (s *RedisStore) Get(ctx context.Context, hash string) ([]byte, error) {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return nil, err
	}
	entry, err := s.entry(ctx, hash)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

func (s *RedisStore) entry(ctx context.Context, hash string) (redisEntry, error) {
	var raw string
	err := RetryWithBackoff(ctx, func() error {
		v, err := s.client.Get(ctx, s.snapshotKey(hash)).Result()
		if err != nil {
			return classify(err)
		}
		raw = v
		return nil
	})
	if err == redis.Nil {
		return redisEntry{}, ErrNotFound
	}
	if err != nil {
		return redisEntry{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return redisEntry{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return entry, nil
}

// List returns all snapshots, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	hashes, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = s.snapshotKey(h)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	out := make([]Entry, 0, len(hashes))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value; skip it.
			continue
		}
		var entry redisEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		out = append(out, Entry{Hash: hashes[i], Size: len(entry.Data), CreatedAt: entry.CreatedAt})
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes a snapshot and its index entry.
func (s *RedisStore) Delete(ctx context.Context, hash string) error {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.snapshotKey(hash))
	pipe.ZRem(ctx, s.indexKey(), hash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) snapshotKey(hash string) string {
	return s.prefix + snapshotKeyPart + hash
}

func (s *RedisStore) indexKey() string {
	return s.prefix + indexKeyPart
}

// classify marks network failures as retryable.
func classify(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Retryable(err)
	}
	return err
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

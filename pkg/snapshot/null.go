package snapshot

import "context"

// NullStore is a no-op store that never keeps anything.
// Useful for testing or when snapshots are disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() *NullStore {
	return &NullStore{}
}

// Put returns the entry data would have had without storing it.
func (s *NullStore) Put(ctx context.Context, data []byte) (Entry, error) {
	return Entry{Hash: Hash(data), Size: len(data)}, nil
}

// Get always returns ErrNotFound.
func (s *NullStore) Get(ctx context.Context, hash string) ([]byte, error) {
	return nil, ErrNotFound
}

// List always returns no entries.
func (s *NullStore) List(ctx context.Context) ([]Entry, error) {
	return nil, nil
}

// Delete does nothing.
func (s *NullStore) Delete(ctx context.Context, hash string) error {
	return nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)

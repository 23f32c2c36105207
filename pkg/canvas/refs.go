package canvas

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/observability"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

// RefModel names the persisted model in LoadRef.
const RefModel = "model"

// LoadRef loads a document by reference:
//
//   - "model" or "": the persisted model (LoadModel)
//   - "snapshot:<hash>": a snapshot, where <hash> may be abbreviated
//   - anything else: a JSON file path
//
// Every document is validated against the schema before it is returned.
func (c *Contract) LoadRef(ctx context.Context, ref string) (*graph.Graph, error) {
	if ref == "" || ref == RefModel {
		return c.LoadModel(ctx)
	}

	if prefix, ok := snapshot.ParseRef(ref); ok {
		return c.loadSnapshot(ctx, prefix)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "document %s does not exist", ref)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", ref)
	}
	return c.decodeValidated(data, ref)
}

func (c *Contract) loadSnapshot(ctx context.Context, prefix string) (*graph.Graph, error) {
	hash, err := snapshot.Resolve(ctx, c.Snapshots, prefix)
	if err != nil {
		return nil, err
	}
	data, err := c.Snapshots.Get(ctx, hash)
	observability.Snapshot().OnSnapshotGet(ctx, Backend(c.Snapshots), hash, err == nil)
	if err != nil {
		return nil, err
	}
	return c.decodeValidated(data, snapshot.RefPrefix+hash)
}

// Backend names a snapshot store implementation for logs and hooks.
func Backend(s snapshot.Store) string {
	switch s.(type) {
	case *snapshot.FileStore:
		return "file"
	case *snapshot.RedisStore:
		return "redis"
	case *snapshot.MongoStore:
		return "mongo"
	case *snapshot.NullStore, nil:
		return "none"
	default:
		return "custom"
	}
}

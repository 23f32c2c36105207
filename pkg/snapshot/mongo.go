package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// DefaultMongoCollection is the collection OpenMongo uses.
const DefaultMongoCollection = "snapshots"

// MongoStore keeps one document per snapshot, keyed by hash.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client // owned when opened through OpenMongo
}

// NewMongoStore wraps an existing collection. Close does not disconnect
// the collection's client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// OpenMongo connects to uri and uses database.snapshots.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	coll := client.Database(database).Collection(DefaultMongoCollection)
	return &MongoStore{coll: coll, client: client}, nil
}

// mongoEntry is the stored document.
type mongoEntry struct {
	Hash      string    `bson:"_id"`
	Size      int       `bson:"size"`
	CreatedAt time.Time `bson:"created_at"`
	Data      []byte    `bson:"data,omitempty"`
}

func (e mongoEntry) entry() Entry {
	return Entry{Hash: e.Hash, Size: e.Size, CreatedAt: e.CreatedAt}
}

// Put inserts the snapshot unless the hash is already stored.
func (s *MongoStore) Put(ctx context.Context, data []byte) (Entry, error) {
	hash := Hash(data)
	now := time.Now().UTC().Truncate(time.Millisecond)

	err := RetryWithBackoff(ctx, func() error {
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": hash},
			bson.M{"$setOnInsert": bson.M{"size": len(data), "created_at": now, "data": data}},
			options.Update().SetUpsert(true),
		)
		return classifyMongo(err)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to store snapshot: %w", err)
	}

	var doc mongoEntry
	err = s.coll.FindOne(ctx, bson.M{"_id": hash},
		options.FindOne().SetProjection(bson.M{"data": 0})).Decode(&doc)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read back snapshot: %w", err)
	}
	return doc.entry(), nil
}

// Get returns the data stored under hash.
func (s *MongoStore) Get(ctx context.Context, hash string) ([]byte, error) {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return nil, err
	}

	var doc mongoEntry
	err := RetryWithBackoff(ctx, func() error {
		return classifyMongo(s.coll.FindOne(ctx, bson.M{"_id": hash}).Decode(&doc))
	})
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return doc.Data, nil
}

// List returns all snapshots, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}

	out := make([]Entry, len(docs))
	for i, d := range docs {
		out[i] = d.entry()
	}
	return out, nil
}

// Delete removes a snapshot.
func (s *MongoStore) Delete(ctx context.Context, hash string) error {
	if err := errors.ValidateSnapshotHash(hash); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": hash}); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close disconnects the client when the store owns it.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func classifyMongo(err error) error {
	if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
		return Retryable(err)
	}
	return err
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

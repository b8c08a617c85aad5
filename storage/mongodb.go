package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pastebit/pastebit/models"
)

// mongoPaste wraps the paste record with a materialized expiry instant
// so MongoDB's TTL monitor can garbage-collect dead records. GC is an
// optimization; liveness is always re-checked by the lifecycle manager.
type mongoPaste struct {
	models.Paste `bson:",inline"`
	GCExpiresAt  *time.Time `bson:"expires_at,omitempty"`
}

// MongoStore implements PasteStore using MongoDB. The collection plays
// the role of the key namespace, so _id holds the bare paste id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoDB storage backend.
func NewMongoStore(url, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection("pastes"),
	}
	if err := store.createIndexes(); err != nil {
		return nil, err
	}
	return store, nil
}

// createIndexes creates the TTL index used for auto-expiration.
func (m *MongoStore) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{ttlIndex})
	return err
}

// Put writes a paste record, overwriting any existing document.
func (m *MongoStore) Put(ctx context.Context, paste *models.Paste) error {
	doc := mongoPaste{Paste: *paste, GCExpiresAt: paste.ExpiresAt()}
	opts := options.Replace().SetUpsert(true)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": paste.ID}, doc, opts)
	return err
}

// Get retrieves a paste by its id.
func (m *MongoStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	res := m.collection.FindOne(ctx, bson.M{"_id": id})
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	// The query succeeded, so a Decode failure means the document
	// exists but does not unmarshal: corrupt, not a connectivity
	// problem.
	var doc mongoPaste
	if err := res.Decode(&doc); err != nil {
		return nil, models.ErrCorruptRecord
	}
	if doc.Content == "" || doc.CreatedAt.IsZero() {
		return nil, models.ErrCorruptRecord
	}
	paste := doc.Paste
	return &paste, nil
}

// CompareAndSwap replaces the record only when the stored version still
// matches, relying on MongoDB's single-document atomicity.
func (m *MongoStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error) {
	doc := mongoPaste{Paste: *paste, GCExpiresAt: paste.ExpiresAt()}
	res, err := m.collection.ReplaceOne(
		ctx,
		bson.M{"_id": id, "version": expectedVersion},
		doc,
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete removes a paste.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Ping checks MongoDB connectivity.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

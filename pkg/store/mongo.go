package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the persistent backend. Entries carry an absolute expiry
// and a TTL index reaps them; since the reaper runs on a coarse
// schedule, reads also filter expired entries so they are never
// honored late.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	ttl    time.Duration
}

var _ Store = (*Mongo)(nil)

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func newMongo(ctx context.Context, cfg Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return &Mongo{client: client, coll: coll, ttl: cfg.TTL}, nil
}

func (m *Mongo) liveFilter(key string) bson.M {
	return bson.M{"_id": key, "expiresAt": bson.M{"$gt": time.Now().UTC()}}
}

// Put implements Store.
func (m *Mongo) Put(ctx context.Context, key, value string) error {
	entry := mongoEntry{Key: key, Value: value, ExpiresAt: time.Now().UTC().Add(m.ttl)}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, entry,
		options.Replace().SetUpsert(true))
	return err
}

// Get implements Store.
func (m *Mongo) Get(ctx context.Context, key string) (string, bool, error) {
	var entry mongoEntry
	err := m.coll.FindOne(ctx, m.liveFilter(key)).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Has implements Store.
func (m *Mongo) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Delete implements Store.
func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// EstimatedSize implements Store. Uses collection metadata, so entries
// past their TTL but not yet reaped are included.
func (m *Mongo) EstimatedSize(ctx context.Context) (int64, error) {
	return m.coll.EstimatedDocumentCount(ctx)
}

// Close implements Store.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// internal/app/store/kv/mongo.go
package kv

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the MongoDB collection backing the key-value store.
const CollectionName = "kv"

// MongoStore keeps one document per key:
//
//	{ _id: <key>, value: <document>, updated_at: <time> }
type MongoStore struct {
	c *mongo.Collection
}

// NewMongo creates a MongoStore on the given database.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection(CollectionName)}
}

type mongoEntry struct {
	Key       string        `bson:"_id"`
	Value     bson.RawValue `bson:"value"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func (s *MongoStore) Get(ctx context.Context, key string, dst any) error {
	var e mongoEntry
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return ErrAbsent
	}
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}
	if err := e.Value.Unmarshal(dst); err != nil {
		return fmt.Errorf("kv decode %q: %w", key, err)
	}
	return nil
}

// Set upserts the document stored under key.
func (s *MongoStore) Set(ctx context.Context, key string, v any) error {
	update := bson.M{
		"$set": bson.M{
			"value":      v,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

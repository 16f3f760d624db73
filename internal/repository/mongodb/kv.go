package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type blob struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// KVStore implements kv.Store with one document per key.
type KVStore struct {
	collection *mongo.Collection
}

func NewKVStore(db *mongo.Database) *KVStore {
	return &KVStore{collection: db.Collection(BlobsCollection)}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var b blob
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return b.Value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now()}}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert blob: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

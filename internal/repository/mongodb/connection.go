// Package mongodb is the document database backend: products, hero slides,
// orders, contact messages and key-value blobs, one collection each.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProductsCollection = "products"
	SlidesCollection   = "heroSlides"
	OrdersCollection   = "orders"
	ContactCollection  = "contactMessages"
	BlobsCollection    = "blobs"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateIndexes prepares every collection this package writes to.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	orders := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "customer.email", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := db.Collection(OrdersCollection).Indexes().CreateMany(ctx, orders); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	slides := mongo.IndexModel{Keys: bson.D{{Key: "order", Value: 1}}}
	if _, err := db.Collection(SlidesCollection).Indexes().CreateOne(ctx, slides); err != nil {
		return fmt.Errorf("failed to create slide indexes: %w", err)
	}

	contact := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}
	if _, err := db.Collection(ContactCollection).Indexes().CreateOne(ctx, contact); err != nil {
		return fmt.Errorf("failed to create contact indexes: %w", err)
	}
	return nil
}

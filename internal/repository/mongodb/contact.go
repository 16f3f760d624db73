package mongodb

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{collection: db.Collection(ContactCollection)}
}

func (r *ContactRepository) Save(ctx context.Context, msg domain.ContactMessage) error {
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context) ([]domain.ContactMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact messages: %w", err)
	}

	messages := []domain.ContactMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode contact messages: %w", err)
	}
	return messages, nil
}

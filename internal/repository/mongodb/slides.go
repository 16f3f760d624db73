package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SlideRepository struct {
	collection *mongo.Collection
}

func NewSlideRepository(db *mongo.Database) *SlideRepository {
	return &SlideRepository{collection: db.Collection(SlidesCollection)}
}

func (r *SlideRepository) Name() string { return "mongo" }

func (r *SlideRepository) List(ctx context.Context) ([]domain.HeroSlide, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find slides: %w", err)
	}

	slides := []domain.HeroSlide{}
	if err := cursor.All(ctx, &slides); err != nil {
		return nil, fmt.Errorf("failed to decode slides: %w", err)
	}
	return slides, nil
}

func (r *SlideRepository) Get(ctx context.Context, id string) (domain.HeroSlide, error) {
	var s domain.HeroSlide
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.HeroSlide{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.HeroSlide{}, fmt.Errorf("failed to get slide: %w", err)
	}
	return s, nil
}

func (r *SlideRepository) Insert(ctx context.Context, s domain.HeroSlide) error {
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to insert slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) Update(ctx context.Context, s domain.HeroSlide) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("failed to update slide: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SlideRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete slide: %w", err)
	}
	return result.DeletedCount > 0, nil
}

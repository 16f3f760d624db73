package local

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
)

// SlideStore keeps hero slides under SlidesKey. It starts empty.
type SlideStore struct {
	items *collection[domain.HeroSlide]
}

func NewSlideStore(store kv.Store) *SlideStore {
	return &SlideStore{items: &collection[domain.HeroSlide]{
		store: store,
		key:   SlidesKey,
		id:    func(s domain.HeroSlide) string { return s.ID },
	}}
}

func (s *SlideStore) Name() string { return "local" }

func (s *SlideStore) List(ctx context.Context) ([]domain.HeroSlide, error) {
	return s.items.list(ctx)
}

func (s *SlideStore) Get(ctx context.Context, id string) (domain.HeroSlide, error) {
	return s.items.get(ctx, id)
}

func (s *SlideStore) Insert(ctx context.Context, slide domain.HeroSlide) error {
	return s.items.insert(ctx, slide)
}

func (s *SlideStore) Update(ctx context.Context, slide domain.HeroSlide) error {
	return s.items.update(ctx, slide)
}

func (s *SlideStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.items.delete(ctx, id)
}

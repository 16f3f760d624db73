// Package slides manages the homepage hero slider.
package slides

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend stores slides. Get and Update return domain.ErrNotFound for an
// unknown id.
type Backend interface {
	Name() string
	List(ctx context.Context) ([]domain.HeroSlide, error)
	Get(ctx context.Context, id string) (domain.HeroSlide, error)
	Insert(ctx context.Context, s domain.HeroSlide) error
	Update(ctx context.Context, s domain.HeroSlide) error
	Delete(ctx context.Context, id string) (bool, error)
}

type Service struct {
	backend Backend
	log     *zap.Logger
}

func NewService(backend Backend, log *zap.Logger) *Service {
	return &Service{backend: backend, log: log.With(zap.String("backend", backend.Name()))}
}

// List returns every slide in display order. Reads are fail-soft.
func (s *Service) List(ctx context.Context) []domain.HeroSlide {
	slides, err := s.backend.List(ctx)
	if err != nil {
		s.log.Error("failed to list slides", zap.Error(err))
		return []domain.HeroSlide{}
	}
	domain.SortSlides(slides)
	return slides
}

func (s *Service) ListActive(ctx context.Context) []domain.HeroSlide {
	all := s.List(ctx)
	active := make([]domain.HeroSlide, 0, len(all))
	for _, slide := range all {
		if slide.Active {
			active = append(active, slide)
		}
	}
	return active
}

func (s *Service) Get(ctx context.Context, id string) (domain.HeroSlide, bool) {
	slide, err := s.backend.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("failed to get slide", zap.String("slide_id", id), zap.Error(err))
		}
		return domain.HeroSlide{}, false
	}
	return slide, true
}

// Create appends the slide when fields.Order is zero.
func (s *Service) Create(ctx context.Context, fields domain.SlideFields) (domain.HeroSlide, error) {
	if err := fields.Validate(); err != nil {
		return domain.HeroSlide{}, err
	}

	order := fields.Order
	if order == 0 {
		existing, err := s.backend.List(ctx)
		if err != nil {
			return domain.HeroSlide{}, domain.NewPersistenceError("list slides", s.backend.Name(), err)
		}
		order = len(existing) + 1
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.HeroSlide{}, fmt.Errorf("failed to generate slide id: %w", err)
	}
	slide := fields.WithID("slide-"+id.String(), order)

	if err := s.backend.Insert(ctx, slide); err != nil {
		return domain.HeroSlide{}, domain.NewPersistenceError("insert slide", s.backend.Name(), err)
	}
	s.log.Info("slide created", zap.String("slide_id", slide.ID), zap.Int("order", slide.Order))
	return slide, nil
}

func (s *Service) Update(ctx context.Context, id string, patch domain.SlidePatch) (domain.HeroSlide, error) {
	if err := patch.Validate(); err != nil {
		return domain.HeroSlide{}, err
	}

	current, err := s.backend.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.HeroSlide{}, fmt.Errorf("slide %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.HeroSlide{}, domain.NewPersistenceError("read slide", s.backend.Name(), err)
	}

	updated := patch.Apply(current)
	if err := s.backend.Update(ctx, updated); err != nil {
		return domain.HeroSlide{}, domain.NewPersistenceError("update slide", s.backend.Name(), err)
	}
	s.log.Info("slide updated", zap.String("slide_id", id))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.backend.Delete(ctx, id)
	if err != nil {
		return false, domain.NewPersistenceError("delete slide", s.backend.Name(), err)
	}
	s.log.Info("slide deleted", zap.String("slide_id", id), zap.Bool("removed", removed))
	return removed, nil
}

// Package admin gates catalog and slider writes, order lookups and admin
// registration behind an admin session.
package admin

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/slides"
)

// OrderLookup is implemented by *checkout.Service.
type OrderLookup interface {
	ListOrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}

// AccountRegistrar is implemented by *session.Manager.
type AccountRegistrar interface {
	Register(ctx context.Context, email, password string) error
}

type Service struct {
	catalog  *catalog.Catalog
	slides   *slides.Service
	orders   OrderLookup
	accounts AccountRegistrar
}

func NewService(catalog *catalog.Catalog, slides *slides.Service, orders OrderLookup, accounts AccountRegistrar) *Service {
	return &Service{catalog: catalog, slides: slides, orders: orders, accounts: accounts}
}

func (s *Service) CreateProduct(ctx context.Context, sess *session.Session, fields domain.ProductFields) (domain.Product, error) {
	if err := sess.Authorize(); err != nil {
		return domain.Product{}, err
	}
	return s.catalog.CreateProduct(ctx, fields)
}

func (s *Service) UpdateProduct(ctx context.Context, sess *session.Session, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := sess.Authorize(); err != nil {
		return domain.Product{}, err
	}
	return s.catalog.UpdateProduct(ctx, id, patch)
}

func (s *Service) DeleteProduct(ctx context.Context, sess *session.Session, id string) (bool, error) {
	if err := sess.Authorize(); err != nil {
		return false, err
	}
	return s.catalog.DeleteProduct(ctx, id)
}

// ListSlides includes inactive slides.
func (s *Service) ListSlides(ctx context.Context, sess *session.Session) ([]domain.HeroSlide, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	return s.slides.List(ctx), nil
}

func (s *Service) CreateSlide(ctx context.Context, sess *session.Session, fields domain.SlideFields) (domain.HeroSlide, error) {
	if err := sess.Authorize(); err != nil {
		return domain.HeroSlide{}, err
	}
	return s.slides.Create(ctx, fields)
}

func (s *Service) UpdateSlide(ctx context.Context, sess *session.Session, id string, patch domain.SlidePatch) (domain.HeroSlide, error) {
	if err := sess.Authorize(); err != nil {
		return domain.HeroSlide{}, err
	}
	return s.slides.Update(ctx, id, patch)
}

func (s *Service) DeleteSlide(ctx context.Context, sess *session.Session, id string) (bool, error) {
	if err := sess.Authorize(); err != nil {
		return false, err
	}
	return s.slides.Delete(ctx, id)
}

// OrdersByEmail looks up a customer's orders across sessions.
func (s *Service) OrdersByEmail(ctx context.Context, sess *session.Session, email string) ([]*domain.Order, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	return s.orders.ListOrdersByEmail(ctx, email)
}

// RegisterAdmin creates another admin account. Only an admin can do so.
func (s *Service) RegisterAdmin(ctx context.Context, sess *session.Session, email, password string) error {
	if err := sess.Authorize(); err != nil {
		return err
	}
	return s.accounts.Register(ctx, email, password)
}

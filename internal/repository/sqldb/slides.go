package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type SlideRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSlideRepository(d *DB) *SlideRepository {
	return &SlideRepository{db: d.db, now: time.Now}
}

func (r *SlideRepository) Name() string { return "sql" }

const slideColumns = `id, title, subtitle, image_url, button_text, button_link, is_active, position`

// List returns slides in insertion order; display order is applied by the
// caller.
func (r *SlideRepository) List(ctx context.Context) ([]domain.HeroSlide, error) {
	query := `SELECT ` + slideColumns + ` FROM hero_slides ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	slides := []domain.HeroSlide{}
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return slides, nil
}

func (r *SlideRepository) Get(ctx context.Context, id string) (domain.HeroSlide, error) {
	query := `SELECT ` + slideColumns + ` FROM hero_slides WHERE id = $1`

	s, err := scanSlide(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HeroSlide{}, domain.ErrNotFound
	}
	return s, err
}

func (r *SlideRepository) Insert(ctx context.Context, s domain.HeroSlide) error {
	query := `INSERT INTO hero_slides (id, title, subtitle, image_url, button_text, button_link, is_active, position, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Subtitle, s.ImageURL, s.ButtonText, s.ButtonLink, s.Active, s.Order,
		unixMilli(r.now()))
	if err != nil {
		return fmt.Errorf("insert slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) Update(ctx context.Context, s domain.HeroSlide) error {
	query := `UPDATE hero_slides
	          SET title = $1, subtitle = $2, image_url = $3, button_text = $4, button_link = $5, is_active = $6, position = $7
	          WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		s.Title, s.Subtitle, s.ImageURL, s.ButtonText, s.ButtonLink, s.Active, s.Order, s.ID)
	if err != nil {
		return fmt.Errorf("update slide: %w", err)
	}
	return expectRow(res)
}

func (r *SlideRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hero_slides WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete slide: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanSlide(s scanner) (domain.HeroSlide, error) {
	var slide domain.HeroSlide
	err := s.Scan(&slide.ID, &slide.Title, &slide.Subtitle, &slide.ImageURL,
		&slide.ButtonText, &slide.ButtonLink, &slide.Active, &slide.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HeroSlide{}, err
	}
	if err != nil {
		return domain.HeroSlide{}, fmt.Errorf("failed to scan slide: %w", err)
	}
	return slide, nil
}

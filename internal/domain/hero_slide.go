package domain

import (
	"sort"
	"strings"
)

// HeroSlide is a homepage slider entry.
type HeroSlide struct {
	ID         string `json:"id" bson:"_id"`
	Title      string `json:"title" bson:"title"`
	Subtitle   string `json:"subtitle" bson:"subtitle"`
	ImageURL   string `json:"image" bson:"image"`
	ButtonText string `json:"buttonText" bson:"button_text"`
	ButtonLink string `json:"buttonLink" bson:"button_link"`
	Active     bool   `json:"isActive" bson:"is_active"`
	Order      int    `json:"order" bson:"order"`
}

type SlideFields struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ImageURL   string `json:"image"`
	ButtonText string `json:"buttonText"`
	ButtonLink string `json:"buttonLink"`
	Active     bool   `json:"isActive"`
	// Order of zero places the slide after the existing ones.
	Order int `json:"order"`
}

func (f SlideFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return invalid("slide title is required")
	}
	if f.Order < 0 {
		return invalid("slide order must be zero or positive")
	}
	return nil
}

func (f SlideFields) WithID(id string, order int) HeroSlide {
	return HeroSlide{
		ID:         id,
		Title:      strings.TrimSpace(f.Title),
		Subtitle:   f.Subtitle,
		ImageURL:   f.ImageURL,
		ButtonText: f.ButtonText,
		ButtonLink: f.ButtonLink,
		Active:     f.Active,
		Order:      order,
	}
}

type SlidePatch struct {
	Title      *string `json:"title,omitempty"`
	Subtitle   *string `json:"subtitle,omitempty"`
	ImageURL   *string `json:"image,omitempty"`
	ButtonText *string `json:"buttonText,omitempty"`
	ButtonLink *string `json:"buttonLink,omitempty"`
	Active     *bool   `json:"isActive,omitempty"`
	Order      *int    `json:"order,omitempty"`
}

func (p SlidePatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("slide title must not be empty")
	}
	if p.Order != nil && *p.Order < 0 {
		return invalid("slide order must be zero or positive")
	}
	return nil
}

func (p SlidePatch) Apply(current HeroSlide) HeroSlide {
	out := current
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Subtitle != nil {
		out.Subtitle = *p.Subtitle
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.ButtonText != nil {
		out.ButtonText = *p.ButtonText
	}
	if p.ButtonLink != nil {
		out.ButtonLink = *p.ButtonLink
	}
	if p.Active != nil {
		out.Active = *p.Active
	}
	if p.Order != nil {
		out.Order = *p.Order
	}
	return out
}

// SortSlides orders by ascending Order. The sort is stable, so slides that
// share an order keep their insertion order.
func SortSlides(slides []HeroSlide) {
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].Order < slides[j].Order
	})
}

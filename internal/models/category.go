package models

import (
	"fmt"
	"unicode/utf8"

	"github.com/desertthunder/rango/internal/shared"
)

// MaxCategoryNameLength bounds [Category] names.
const MaxCategoryNameLength = 128

// Category is a named, sluggable grouping of pages with a likes counter.
type Category struct {
	record
	name  string
	slug  string
	likes int
}

var _ Model = (*Category)(nil)

// NewCategory creates a category with zero likes and a slug derived from name.
func NewCategory(sequence int, name string) *Category {
	return &Category{
		record: newRecord(sequence),
		name:   name,
		slug:   shared.Slugify(name),
	}
}

func (c *Category) Name() string { return c.name }
func (c *Category) Slug() string { return c.slug }
func (c *Category) Likes() int   { return c.likes }

// SetName renames the category and re-derives its slug.
func (c *Category) SetName(name string) {
	c.name = name
	c.slug = shared.Slugify(name)
}

// SetSlug overrides the derived slug; used when loading rows.
func (c *Category) SetSlug(slug string) { c.slug = slug }

// SetLikes is used when loading rows; increments go through the repository.
func (c *Category) SetLikes(likes int) { c.likes = likes }

// Validate checks name, slug and likes.
func (c *Category) Validate() error {
	switch {
	case c.name == "":
		return fmt.Errorf("%w: category name is required", shared.ErrInvalidInput)
	case utf8.RuneCountInString(c.name) > MaxCategoryNameLength:
		return fmt.Errorf("%w: category name exceeds %d characters", shared.ErrInvalidInput, MaxCategoryNameLength)
	case c.slug == "":
		return fmt.Errorf("%w: category name %q has no URL-safe characters", shared.ErrInvalidInput, c.name)
	case c.likes < 0:
		return fmt.Errorf("%w: likes cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

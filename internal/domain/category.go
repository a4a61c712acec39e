package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Category
var (
	ErrEmptyCategoryID     = fmt.Errorf("%w: category ID cannot be empty", ErrValidation)
	ErrEmptyCategoryName   = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	ErrCategoryNameTooLong = fmt.Errorf("%w: category name must be at most 80 characters long", ErrValidation)
	ErrEmptyCategorySlug   = fmt.Errorf("%w: category slug cannot be empty", ErrValidation)
)

// maxCategoryNameLength bounds category names.
const maxCategoryNameLength = 80

// Category groups posts under a named topic. The slug is derived from the
// name and used in URLs and list filters.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a new Category with the given name.
// It generates a new UUID for the category ID, derives the slug from the
// name, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewCategory(name string) (*Category, error) {
	category := &Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      Slugify(name),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
// Returns an error if any field fails validation.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}

	if c.Name == "" {
		return ErrEmptyCategoryName
	}

	if len(c.Name) > maxCategoryNameLength {
		return ErrCategoryNameTooLong
	}

	if c.Slug == "" {
		return ErrEmptyCategorySlug
	}

	return nil
}

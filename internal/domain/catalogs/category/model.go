// Package category provides the ProductCategory catalog.
package category

import (
	"gespro/internal/core/entity"
)

// Category groups products for filtering and reporting.
type Category struct {
	entity.Catalog
}

// New creates a new Category with required fields.
func New(name string) *Category {
	return &Category{
		Catalog: entity.NewCatalog("", name),
	}
}

// Package product provides the Product catalog: sellable items with stock,
// prices and a low-stock alert threshold.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
	"gespro/internal/core/id"
)

// Product represents a stocked, sellable item.
type Product struct {
	entity.Catalog

	// SalePrice is the unit price charged on sales
	SalePrice decimal.Decimal `db:"sale_price" json:"salePrice"`

	// PurchasePrice is the unit cost on purchase orders
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchasePrice"`

	// Quantity is the current stock level. Mutated only inside document
	// commit transactions (sale decrements, reception increments).
	Quantity decimal.Decimal `db:"quantity" json:"quantity"`

	// AlertThreshold triggers a low-stock notification when
	// quantity <= threshold after a sale
	AlertThreshold decimal.Decimal `db:"alert_threshold" json:"alertThreshold"`

	// IsSellable gates whether the product can appear on a sale
	IsSellable bool `db:"is_sellable" json:"isSellable"`

	// CategoryID is an optional reference to the product category
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// SupplierID is an optional reference to the usual supplier
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// Description is a free-form note
	Description *string `db:"description" json:"description,omitempty"`
}

// New creates a new Product with required fields. Products created inline by
// a document commit start with zero stock and are sellable.
func New(name string) *Product {
	return &Product{
		Catalog:        entity.NewCatalog("", name),
		SalePrice:      decimal.Zero,
		PurchasePrice:  decimal.Zero,
		Quantity:       decimal.Zero,
		AlertThreshold: decimal.Zero,
		IsSellable:     true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}

	if p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price cannot be negative").
			WithDetail("field", "purchasePrice")
	}

	if p.AlertThreshold.IsNegative() {
		return apperror.NewValidation("alert threshold cannot be negative").
			WithDetail("field", "alertThreshold")
	}

	return nil
}

// IsLowStock reports whether stock is at or below the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity.LessThanOrEqual(p.AlertThreshold)
}

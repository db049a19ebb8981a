package dto

import (
	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/domain/catalogs/category"
	"gespro/internal/domain/catalogs/client"
	"gespro/internal/domain/catalogs/product"
	"gespro/internal/domain/catalogs/supplier"
)

// --- Clients ---

// CreateClientRequest for POST /catalog/clients.
type CreateClientRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// ToEntity maps the request to a new client.
func (r CreateClientRequest) ToEntity() *client.Client {
	c := client.New(r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	return c
}

// UpdateClientRequest for PUT /catalog/clients/:id.
type UpdateClientRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the request onto an existing client.
func (r UpdateClientRequest) ApplyTo(c *client.Client) {
	c.Name = r.Name
	c.Phone = r.Phone
	c.Email = r.Email
	c.Version = r.Version
}

// --- Categories ---

// CreateCategoryRequest for POST /catalog/categories.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// ToEntity maps the request to a new category.
func (r CreateCategoryRequest) ToEntity() *category.Category {
	return category.New(r.Name)
}

// UpdateCategoryRequest for PUT /catalog/categories/:id.
type UpdateCategoryRequest struct {
	Name    string `json:"name" binding:"required"`
	Version int    `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the request onto an existing category.
func (r UpdateCategoryRequest) ApplyTo(c *category.Category) {
	c.Name = r.Name
	c.Version = r.Version
}

// --- Suppliers ---

// CreateSupplierRequest for POST /catalog/suppliers.
type CreateSupplierRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// ToEntity maps the request to a new supplier.
func (r CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.Name)
	s.Phone = r.Phone
	s.Email = r.Email
	return s
}

// UpdateSupplierRequest for PUT /catalog/suppliers/:id.
type UpdateSupplierRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the request onto an existing supplier.
func (r UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Name = r.Name
	s.Phone = r.Phone
	s.Email = r.Email
	s.Version = r.Version
}

// --- Products ---

// CreateProductRequest for POST /catalog/products.
type CreateProductRequest struct {
	Name           string          `json:"name" binding:"required"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	Quantity       decimal.Decimal `json:"quantity"`
	AlertThreshold decimal.Decimal `json:"alertThreshold"`
	IsSellable     *bool           `json:"isSellable"`
	CategoryID     *string         `json:"categoryId"`
	SupplierID     *string         `json:"supplierId"`
	Description    *string         `json:"description"`
}

// ToEntity maps the request to a new product.
func (r CreateProductRequest) ToEntity() (*product.Product, error) {
	p := product.New(r.Name)
	p.SalePrice = r.SalePrice
	p.PurchasePrice = r.PurchasePrice
	p.Quantity = r.Quantity
	p.AlertThreshold = r.AlertThreshold
	if r.IsSellable != nil {
		p.IsSellable = *r.IsSellable
	}
	p.Description = r.Description

	var err error
	if p.CategoryID, err = parseOptionalID(r.CategoryID); err != nil {
		return nil, err
	}
	if p.SupplierID, err = parseOptionalID(r.SupplierID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProductRequest for PUT /catalog/products/:id.
type UpdateProductRequest struct {
	Name           string          `json:"name" binding:"required"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	Quantity       decimal.Decimal `json:"quantity"`
	AlertThreshold decimal.Decimal `json:"alertThreshold"`
	IsSellable     *bool           `json:"isSellable"`
	CategoryID     *string         `json:"categoryId"`
	SupplierID     *string         `json:"supplierId"`
	Description    *string         `json:"description"`
	Version        int             `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the request onto an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) error {
	p.Name = r.Name
	p.SalePrice = r.SalePrice
	p.PurchasePrice = r.PurchasePrice
	p.Quantity = r.Quantity
	p.AlertThreshold = r.AlertThreshold
	if r.IsSellable != nil {
		p.IsSellable = *r.IsSellable
	}
	p.Description = r.Description
	p.Version = r.Version

	var err error
	if p.CategoryID, err = parseOptionalID(r.CategoryID); err != nil {
		return err
	}
	if p.SupplierID, err = parseOptionalID(r.SupplierID); err != nil {
		return err
	}
	return nil
}

func parseOptionalID(s *string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

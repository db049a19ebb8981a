// Package docsnap provides receipt snapshots: frozen copies of committed
// sales and purchase orders used by the print and export screens.
// Snapshots are regenerable; losing one never invalidates its source document.
package docsnap

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
)

// Type discriminates the source document kind.
type Type string

const (
	TypeReceiptSale     Type = "receipt_sale"
	TypeReceiptPurchase Type = "receipt_purchase"
)

func isValidType(t Type) bool {
	return t == TypeReceiptSale || t == TypeReceiptPurchase
}

// Snapshot is a frozen receipt for a committed document.
type Snapshot struct {
	entity.Document

	// Type is receipt_sale or receipt_purchase
	Type Type `db:"type" json:"type"`

	// DocumentNumber is the number of the source document (VTE-..., CMD-...)
	DocumentNumber string `db:"document_number" json:"documentNumber"`

	// PartyName is the client or supplier name at commit time
	PartyName string `db:"party_name" json:"partyName"`

	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`

	// Details holds the frozen line items as JSONB: {"items":[{name,qty,price}]}
	Details json.RawMessage `db:"details" json:"details"`
}

// DetailItem is one frozen line inside Details.
type DetailItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// Details is the JSONB payload shape.
type DetailsPayload struct {
	Items []DetailItem `json:"items"`
}

// New creates a new snapshot shell.
func New(snapType Type) *Snapshot {
	return &Snapshot{
		Document: entity.NewDocument(),
		Type:     snapType,
	}
}

// Validate implements entity.Validatable.
func (s *Snapshot) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidType(s.Type) {
		return apperror.NewValidation("invalid snapshot type").
			WithDetail("field", "type").
			WithDetail("value", string(s.Type))
	}

	if s.DocumentNumber == "" {
		return apperror.NewValidation("document number is required").
			WithDetail("field", "documentNumber")
	}

	return nil
}

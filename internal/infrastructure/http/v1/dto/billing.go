package dto

import (
	"github.com/shopspring/decimal"

	"gespro/internal/domain/billing"
)

// SubscribeRequest for POST /billing/subscriptions.
type SubscribeRequest struct {
	PlanID     string `json:"planId" binding:"required"`
	PayerName  string `json:"payerName" binding:"required"`
	PayerPhone string `json:"payerPhone" binding:"required"`
}

// ToPayerInfo maps the payer fields.
func (r SubscribeRequest) ToPayerInfo() billing.PayerInfo {
	return billing.PayerInfo{
		Name:  r.PayerName,
		Phone: r.PayerPhone,
	}
}

// SubscribeResponse returns the pending subscription and the gateway
// checkout coordinates the client must follow to pay.
type SubscribeResponse struct {
	Subscription *billing.Subscription `json:"subscription"`
	PaymentToken string                `json:"paymentToken"`
	PaymentURL   string                `json:"paymentUrl"`
}

// CreatePlanRequest for POST /admin/plans.
type CreatePlanRequest struct {
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	DurationDays int             `json:"durationDays" binding:"required,min=1"`
}

// ToEntity maps the request to a plan.
func (r CreatePlanRequest) ToEntity() *billing.Plan {
	return billing.NewPlan(r.Name, r.Price, r.DurationDays)
}

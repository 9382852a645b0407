package model

import (
	"time"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Promo is a discount code. used_count is mutated only through the promo
// repository's atomic consume/release operations and never exceeds
// usage_limit.
type Promo struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code          string    `json:"code" bson:"code" validate:"required,uppercase,min=3,max=20"`
	DiscountType  string    `json:"discount_type" bson:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64   `json:"discount_value" bson:"discount_value" validate:"required,gt=0"`
	MinAmount     *float64  `json:"min_amount,omitempty" bson:"min_amount,omitempty" validate:"omitempty,gt=0"`
	MaxDiscount   *float64  `json:"max_discount,omitempty" bson:"max_discount,omitempty" validate:"omitempty,gt=0"`
	ValidFrom     time.Time `json:"valid_from" bson:"valid_from" validate:"required"`
	ValidUntil    time.Time `json:"valid_until" bson:"valid_until" validate:"required,gtefield=ValidFrom"`
	UsageLimit    int       `json:"usage_limit" bson:"usage_limit" validate:"required,min=1"`
	UsedCount     int       `json:"used_count" bson:"used_count" validate:"min=0"`
	IsActive      bool      `json:"is_active" bson:"is_active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// PromoSummary is the public shape of an accepted promo, returned by the
// preview endpoint.
type PromoSummary struct {
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

// Discount is the outcome of evaluating a promo against a subtotal.
type Discount struct {
	Code        string  `json:"code"`
	Amount      float64 `json:"amount"`
	FinalAmount float64 `json:"final_amount"`
}

// PromoQuoteRequest is the non-consuming preview request.
type PromoQuoteRequest struct {
	Code        string  `json:"code" validate:"required,min=3,max=20"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
}

// PromoQuote is the preview response; producing one never consumes usage.
type PromoQuote struct {
	Valid          bool         `json:"valid"`
	DiscountAmount float64      `json:"discount_amount"`
	FinalAmount    float64      `json:"final_amount"`
	Promo          PromoSummary `json:"promo"`
}

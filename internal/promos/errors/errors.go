package errors

import "errors"

// Promo rejections, in validation order. All are permanent for a given
// promo/subtotal pair.
var (
	ErrPromoNotFound = errors.New("promo code not found or inactive")

	ErrPromoExpired = errors.New("promo code is outside its validity window")

	ErrPromoExhausted = errors.New("promo code has reached its usage limit")

	ErrPromoMinimumNotMet = errors.New("subtotal is below the promo minimum amount")

	// ErrDiscountExceedsSubtotal is returned under the reject policy when a
	// fixed discount is larger than the subtotal.
	ErrDiscountExceedsSubtotal = errors.New("discount exceeds subtotal")

	// ErrInvalidSubtotal rejects quotes against a non-positive subtotal.
	ErrInvalidSubtotal = errors.New("subtotal must be positive")
)

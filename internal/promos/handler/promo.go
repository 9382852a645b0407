package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	promoserrors "bookit/internal/promos/errors"
	"bookit/internal/promos/service"
	apperrors "bookit/pkg/errors"
	httputil "bookit/pkg/http"
	"bookit/pkg/logger"
	"bookit/pkg/model"
)

type PromoHandler struct {
	service service.PromoService
	log     *logger.Logger
}

func NewPromoHandler(service service.PromoService, log *logger.Logger) *PromoHandler {
	return &PromoHandler{
		service: service,
		log:     log,
	}
}

// Validate prices a promo code against a subtotal without consuming usage.
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PromoQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Validate", apperrors.InvalidInput("invalid request body"))
		return
	}

	if req.Code == "" {
		h.writeError(w, "Validate", apperrors.InvalidInput("promo code is required"))
		return
	}
	if req.TotalAmount <= 0 {
		h.writeError(w, "Validate", apperrors.InvalidInput("total amount must be positive"))
		return
	}

	quote, err := h.service.Quote(r.Context(), req.Code, req.TotalAmount)
	if err != nil {
		h.writeError(w, "Validate", mapPromoError(err, req.Code))
		return
	}

	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.log.Error("failed to write success response", "handler", "Validate", "error", err)
	}
}

func (h *PromoHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func mapPromoError(err error, code string) error {
	details := map[string]any{"code": code}
	switch {
	case errors.Is(err, promoserrors.ErrPromoNotFound):
		return apperrors.PromoNotFound(code)
	case errors.Is(err, promoserrors.ErrPromoExpired):
		return apperrors.PromoRejected("Promo code is outside its validity window", details)
	case errors.Is(err, promoserrors.ErrPromoExhausted):
		return apperrors.PromoRejected("Promo code usage limit reached", details)
	case errors.Is(err, promoserrors.ErrPromoMinimumNotMet):
		return apperrors.PromoRejected("Order total is below the promo minimum", details)
	case errors.Is(err, promoserrors.ErrDiscountExceedsSubtotal):
		return apperrors.PromoRejected("Discount exceeds the order total", details)
	case errors.Is(err, promoserrors.ErrInvalidSubtotal):
		return apperrors.InvalidInput("Total amount must be positive")
	default:
		return apperrors.Wrap(err, apperrors.CodeInternal, "Failed to validate promo code", http.StatusInternalServerError)
	}
}

func (h *PromoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/promos/validate", h.Validate)
}

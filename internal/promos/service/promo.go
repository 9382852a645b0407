package service

import (
	"context"
	"fmt"
	"time"

	promoserrors "bookit/internal/promos/errors"
	"bookit/internal/promos/repository"
	"bookit/pkg/config"
	"bookit/pkg/model"
	"bookit/pkg/sanitizer"
)

// PromoService keeps the two promo contracts separate: Quote is a
// non-mutating preview, Apply is the consuming evaluation whose limit check
// and usage increment happen atomically in the repository. Revert
// compensates a consumed usage when the surrounding booking fails.
type PromoService interface {
	Quote(ctx context.Context, code string, subtotal float64) (*model.PromoQuote, error)
	Apply(ctx context.Context, code string, subtotal float64) (*model.Discount, error)
	Revert(ctx context.Context, code string) error
}

type promoService struct {
	repo repository.PromoRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewPromoService(repo repository.PromoRepository, cfg *config.Config) PromoService {
	return &promoService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *promoService) Quote(ctx context.Context, code string, subtotal float64) (*model.PromoQuote, error) {
	code = sanitizer.NormalizePromoCode(code)
	if code == "" {
		return nil, promoserrors.ErrPromoNotFound
	}
	if subtotal <= 0 {
		return nil, promoserrors.ErrInvalidSubtotal
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	amount, err := s.evaluate(promo, subtotal)
	if err != nil {
		return nil, err
	}

	return &model.PromoQuote{
		Valid:          true,
		DiscountAmount: amount,
		FinalAmount:    model.RoundCents(subtotal - amount),
		Promo: model.PromoSummary{
			Code:          promo.Code,
			DiscountType:  promo.DiscountType,
			DiscountValue: promo.DiscountValue,
		},
	}, nil
}

func (s *promoService) Apply(ctx context.Context, code string, subtotal float64) (*model.Discount, error) {
	code = sanitizer.NormalizePromoCode(code)
	if code == "" {
		return nil, promoserrors.ErrPromoNotFound
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// Evaluate against the read state first so failures keep their rule
	// order and a rejected promo never touches used_count.
	amount, err := s.evaluate(promo, subtotal)
	if err != nil {
		return nil, err
	}

	// The read above may be stale; the atomic consume is the authority on
	// the usage limit under concurrency.
	if _, err := s.repo.ConsumeUsage(ctx, code); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Promo applied",
		"code", code,
		"subtotal", subtotal,
		"discount", amount,
	)

	return &model.Discount{
		Code:        code,
		Amount:      amount,
		FinalAmount: model.RoundCents(subtotal - amount),
	}, nil
}

func (s *promoService) Revert(ctx context.Context, code string) error {
	code = sanitizer.NormalizePromoCode(code)
	if code == "" {
		return nil
	}

	if err := s.repo.ReleaseUsage(ctx, code); err != nil {
		return err
	}

	s.cfg.Log.Info("Promo usage reverted", "code", code)
	return nil
}

// evaluate runs the validation rules in order (window, usage, minimum) and
// computes the discount amount. First failing rule wins.
func (s *promoService) evaluate(promo *model.Promo, subtotal float64) (float64, error) {
	now := s.now()

	if now.Before(promo.ValidFrom) || now.After(promo.ValidUntil) {
		return 0, promoserrors.ErrPromoExpired
	}

	if promo.UsedCount >= promo.UsageLimit {
		return 0, promoserrors.ErrPromoExhausted
	}

	if promo.MinAmount != nil && subtotal < *promo.MinAmount {
		return 0, promoserrors.ErrPromoMinimumNotMet
	}

	switch promo.DiscountType {
	case model.DiscountPercentage:
		amount := subtotal * promo.DiscountValue / 100
		if promo.MaxDiscount != nil && amount > *promo.MaxDiscount {
			amount = *promo.MaxDiscount
		}
		return model.RoundCents(amount), nil

	case model.DiscountFixed:
		amount := promo.DiscountValue
		if amount > subtotal {
			if s.cfg.FixedDiscountPolicy == config.FixedDiscountReject {
				return 0, promoserrors.ErrDiscountExceedsSubtotal
			}
			amount = subtotal
		}
		return model.RoundCents(amount), nil

	default:
		return 0, fmt.Errorf("unknown discount type %q for promo %s", promo.DiscountType, promo.Code)
	}
}


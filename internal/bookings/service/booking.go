package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "bookit/internal/bookings/errors"
	"bookit/internal/bookings/events"
	bookingsrepo "bookit/internal/bookings/repository"
	"bookit/internal/bookings/validator"
	experienceserrors "bookit/internal/experiences/errors"
	experiencesrepo "bookit/internal/experiences/repository"
	inventoryerrors "bookit/internal/inventory/errors"
	inventoryrepo "bookit/internal/inventory/repository"
	promoserrors "bookit/internal/promos/errors"
	promosservice "bookit/internal/promos/service"
	"bookit/pkg/config"
	apperrors "bookit/pkg/errors"
	"bookit/pkg/model"
	"bookit/pkg/reference"
)

// compensationTimeout bounds rollback work after the request context is
// detached. Compensation must not be abandoned because a client went away.
const compensationTimeout = 10 * time.Second

type BookingService interface {
	// Create runs the reservation sequence: validate, price, reserve slots,
	// apply promo, persist. Any failure after a mutation rolls the earlier
	// mutations back before the error is returned.
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByReference(ctx context.Context, ref string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	bookings    bookingsrepo.BookingRepository
	experiences experiencesrepo.ExperienceRepository
	inventory   inventoryrepo.InventoryRepository
	promos      promosservice.PromoService
	validator   *validator.BookingValidator
	publisher   events.Publisher
	cfg         *config.Config

	newReference func() string
}

func NewBookingService(
	bookings bookingsrepo.BookingRepository,
	experiences experiencesrepo.ExperienceRepository,
	inventory inventoryrepo.InventoryRepository,
	promos promosservice.PromoService,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookings:     bookings,
		experiences:  experiences,
		inventory:    inventory,
		promos:       promos,
		validator:    bookingValidator,
		publisher:    publisher,
		cfg:          cfg,
		newReference: reference.New,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	// Step 1: sanitize and validate. Nothing has been mutated yet, so a
	// rejection here leaves no trace anywhere.
	if err := s.validator.ValidateRequest(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Booking request failed validation", verrs.Fields())
		}
		return nil, apperrors.Internal("Failed to validate booking request", err)
	}

	// Step 2: price against the catalog.
	experience, err := s.experiences.FindByID(ctx, req.ExperienceID)
	if err != nil {
		return nil, mapExperienceError(err, req.ExperienceID)
	}
	subtotal := model.RoundCents(experience.Price * float64(req.NumberOfSlots))

	// Step 3: atomic capacity reservation. From here on every failure path
	// must release what was taken.
	if _, err := s.inventory.Reserve(ctx, req.ExperienceID, req.SelectedDate, req.NumberOfSlots); err != nil {
		return nil, mapInventoryError(err, req)
	}

	// Step 4: promo application, consuming one usage on success.
	var discountAmount float64
	finalAmount := subtotal
	if req.PromoCode != "" {
		discount, err := s.promos.Apply(ctx, req.PromoCode, subtotal)
		if err != nil {
			s.compensate(ctx, req, false)
			return nil, mapPromoError(err, req.PromoCode)
		}
		discountAmount = discount.Amount
		finalAmount = discount.FinalAmount
	}

	booking := &model.Booking{
		ExperienceID:   req.ExperienceID,
		UserName:       req.UserName,
		UserEmail:      req.UserEmail,
		UserPhone:      req.UserPhone,
		SelectedDate:   req.SelectedDate,
		NumberOfSlots:  req.NumberOfSlots,
		TotalAmount:    subtotal,
		DiscountAmount: discountAmount,
		FinalAmount:    finalAmount,
		PromoCode:      req.PromoCode,
		Status:         config.Confirmed,
		CreatedAt:      time.Now().UTC(),
	}

	// Step 5: persist, retrying reference collisions with a fresh reference.
	// The unique index is the authority; the generator only makes collisions
	// unlikely, never impossible.
	created, err := s.persistWithRetry(ctx, booking)
	if err != nil {
		s.compensate(ctx, req, req.PromoCode != "")
		return nil, err
	}

	// Step 6: best-effort event publish. The booking is committed; a broker
	// failure must not turn it into an error.
	s.publisher.BookingCreated(context.WithoutCancel(ctx), created)

	return created, nil
}

func (s *bookingService) persistWithRetry(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	retries := s.cfg.ReferenceRetryLimit
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		booking.BookingReference = s.newReference()

		created, err := s.bookings.Create(ctx, booking)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, bookingserrors.ErrDuplicateReference) {
			// Slots and promo usage are rolled back by the caller; the client
			// may safely retry the whole request.
			return nil, apperrors.Unavailable("Failed to persist booking", err)
		}
		lastErr = err

		s.cfg.Log.Warn("Booking reference collision, retrying with a fresh reference",
			"attempt", attempt+1,
			"reference", booking.BookingReference,
		)
	}

	return nil, apperrors.Internal("Failed to persist booking after reference retries", lastErr)
}

// compensate releases reserved slots and, when a promo usage was consumed,
// reverts it. It runs on a context detached from the request so that a
// client disconnect cannot strand the rollback, and failures are logged
// rather than returned: the caller already has the primary error.
func (s *bookingService) compensate(ctx context.Context, req *model.BookingRequest, revertPromo bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.inventory.Release(ctx, req.ExperienceID, req.SelectedDate, req.NumberOfSlots); err != nil {
		s.cfg.Log.Error("Compensation failed to release reserved slots",
			"experience_id", req.ExperienceID,
			"selected_date", req.SelectedDate,
			"number_of_slots", req.NumberOfSlots,
			"error", err,
		)
	}

	if revertPromo {
		if err := s.promos.Revert(ctx, req.PromoCode); err != nil {
			s.cfg.Log.Error("Compensation failed to revert promo usage",
				"promo_code", req.PromoCode,
				"error", err,
			)
		}
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, mapBookingError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetByReference(ctx context.Context, ref string) (*model.Booking, error) {
	if !reference.IsWellFormed(ref) {
		return nil, apperrors.InvalidInput("Malformed booking reference")
	}

	booking, err := s.bookings.FindByReference(ctx, ref)
	if err != nil {
		return nil, mapBookingError(err, ref)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	type countResult struct {
		count int64
		err   error
	}
	countCh := make(chan countResult, 1)

	go func() {
		count, err := s.bookings.Count(ctx)
		countCh <- countResult{count: count, err: err}
	}()

	bookings, err := s.bookings.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list bookings", err)
	}

	counted := <-countCh
	if counted.err != nil {
		return nil, 0, apperrors.Internal("Failed to count bookings", counted.err)
	}

	return bookings, counted.count, nil
}

func mapExperienceError(err error, id string) error {
	switch {
	case errors.Is(err, experienceserrors.ErrNotFound):
		return apperrors.NotFoundWithID("experience", id)
	case errors.Is(err, experienceserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid experience ID format")
	default:
		return apperrors.Internal("Failed to load experience", err)
	}
}

func mapInventoryError(err error, req *model.BookingRequest) error {
	switch {
	case errors.Is(err, inventoryerrors.ErrSlotNotFound):
		return apperrors.NotFoundWithID("slot", req.SelectedDate.UTC().Format("2006-01-02"))
	case errors.Is(err, inventoryerrors.ErrInsufficientCapacity):
		return apperrors.InsufficientCapacity("Not enough slots available for the selected date", map[string]any{
			"experience_id": req.ExperienceID,
			"selected_date": req.SelectedDate.UTC().Format("2006-01-02"),
			"requested":     req.NumberOfSlots,
		})
	case errors.Is(err, inventoryerrors.ErrInvalidQuantity):
		return apperrors.InvalidInput("Number of slots must be positive")
	default:
		return apperrors.Internal("Failed to reserve slots", err)
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
	default:
		return apperrors.Internal("Failed to apply promo code", err)
	}
}

func mapBookingError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal("Failed to load booking", err)
	}
}


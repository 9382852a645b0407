package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingserrors "bookit/internal/bookings/errors"
	"bookit/internal/bookings/validator"
	experienceserrors "bookit/internal/experiences/errors"
	inventoryerrors "bookit/internal/inventory/errors"
	promoserrors "bookit/internal/promos/errors"
	promosservice "bookit/internal/promos/service"
	"bookit/pkg/config"
	apperrors "bookit/pkg/errors"
	"bookit/pkg/logger"
	"bookit/pkg/model"
	"bookit/pkg/reference"
)

const testExperienceID = "507f1f77bcf86cd799439011"

// fakeInventory mirrors the atomicity contract of the mongo repository:
// check-and-decrement under one lock, release clamped at max capacity.
type fakeInventory struct {
	mu          sync.Mutex
	available   int
	maxCapacity int
}

func (f *fakeInventory) Reserve(_ context.Context, _ string, _ time.Time, n int) (*model.Slot, error) {
	if n <= 0 {
		return nil, inventoryerrors.ErrInvalidQuantity
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.available < n {
		return nil, inventoryerrors.ErrInsufficientCapacity
	}
	f.available -= n
	return &model.Slot{Available: f.available, MaxCapacity: f.maxCapacity}, nil
}

func (f *fakeInventory) Release(_ context.Context, _ string, _ time.Time, n int) error {
	if n <= 0 {
		return inventoryerrors.ErrInvalidQuantity
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.available += n
	if f.available > f.maxCapacity {
		f.available = f.maxCapacity
	}
	return nil
}

func (f *fakeInventory) FindSlot(_ context.Context, _ string, _ time.Time) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Slot{Available: f.available, MaxCapacity: f.maxCapacity}, nil
}

func (f *fakeInventory) availableNow() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// nilSnapshotInventory reserves like fakeInventory but reports a nil slot,
// the shape the repository returns when the decrement applied and only the
// follow-up snapshot read failed.
type nilSnapshotInventory struct {
	inner *fakeInventory
}

func (f *nilSnapshotInventory) Reserve(ctx context.Context, id string, date time.Time, n int) (*model.Slot, error) {
	if _, err := f.inner.Reserve(ctx, id, date, n); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *nilSnapshotInventory) Release(ctx context.Context, id string, date time.Time, n int) error {
	return f.inner.Release(ctx, id, date, n)
}

func (f *nilSnapshotInventory) FindSlot(ctx context.Context, id string, date time.Time) (*model.Slot, error) {
	return f.inner.FindSlot(ctx, id, date)
}

type fakeExperiences struct {
	experience *model.Experience
}

func (f *fakeExperiences) FindByID(_ context.Context, id string) (*model.Experience, error) {
	if f.experience == nil || f.experience.ID != id {
		return nil, experienceserrors.ErrNotFound
	}
	snapshot := *f.experience
	return &snapshot, nil
}

func (f *fakeExperiences) FindAll(context.Context, int, int64) ([]*model.Experience, error) {
	return nil, nil
}

func (f *fakeExperiences) Count(context.Context) (int64, error) { return 0, nil }

// fakeBookings enforces reference uniqueness like the unique index does and
// supports failure injection through createErr.
type fakeBookings struct {
	mu        sync.Mutex
	byRef     map[string]*model.Booking
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byRef: make(map[string]*model.Booking)}
}

func (f *fakeBookings) Create(_ context.Context, booking *model.Booking) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byRef[booking.BookingReference]; exists {
		return nil, bookingserrors.ErrDuplicateReference
	}

	stored := *booking
	stored.ID = fmt.Sprintf("%024x", len(f.byRef)+1)
	f.byRef[booking.BookingReference] = &stored

	snapshot := stored
	return &snapshot, nil
}

func (f *fakeBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.byRef {
		if b.ID == id {
			snapshot := *b
			return &snapshot, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookings) FindByReference(_ context.Context, ref string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.byRef[ref]; ok {
		snapshot := *b
		return &snapshot, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookings) FindAll(context.Context, int, int64) ([]*model.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byRef)), nil
}

func (f *fakeBookings) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byRef)
}

// fakePromos tracks used count under a lock, same contract as the real
// promo service backed by the atomic repository.
type fakePromos struct {
	mu         sync.Mutex
	promo      *model.Promo
	applyCalls int
}

func (f *fakePromos) Quote(_ context.Context, code string, subtotal float64) (*model.PromoQuote, error) {
	return nil, errors.New("not used in these tests")
}

func (f *fakePromos) Apply(_ context.Context, code string, subtotal float64) (*model.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++

	if f.promo == nil || f.promo.Code != code {
		return nil, fmt.Errorf("unexpected code %q", code)
	}
	if f.promo.MinAmount != nil && subtotal < *f.promo.MinAmount {
		return nil, promoserrors.ErrPromoMinimumNotMet
	}
	if f.promo.UsedCount >= f.promo.UsageLimit {
		return nil, promoserrors.ErrPromoExhausted
	}
	f.promo.UsedCount++

	amount := subtotal * f.promo.DiscountValue / 100
	return &model.Discount{
		Code:        code,
		Amount:      amount,
		FinalAmount: subtotal - amount,
	}, nil
}

func (f *fakePromos) Revert(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.promo != nil && f.promo.Code == code && f.promo.UsedCount > 0 {
		f.promo.UsedCount--
	}
	return nil
}

func (f *fakePromos) usedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promo.UsedCount
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*model.Booking
}

func (p *recordingPublisher) BookingCreated(_ context.Context, booking *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, booking)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fixture struct {
	svc       *bookingService
	inventory *fakeInventory
	bookings  *fakeBookings
	promos    *fakePromos
	publisher *recordingPublisher
	cfg       *config.Config
}

func newFixture(t *testing.T, available int) *fixture {
	t.Helper()

	cfg := &config.Config{
		MaxSlotsPerBooking:  50,
		ReferenceRetryLimit: 3,
		FixedDiscountPolicy: config.FixedDiscountClamp,
		Log:                 logger.New(logger.Config{Level: "error", Service: "test"}),
	}

	inventory := &fakeInventory{available: available, maxCapacity: available}
	bookings := newFakeBookings()
	promos := &fakePromos{promo: &model.Promo{
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		UsageLimit:    100,
		IsActive:      true,
	}}
	publisher := &recordingPublisher{}

	experiences := &fakeExperiences{experience: &model.Experience{
		ID:    testExperienceID,
		Title: "Kayak Tour",
		Price: 100,
	}}

	svc := &bookingService{
		bookings:     bookings,
		experiences:  experiences,
		inventory:    inventory,
		promos:       promos,
		validator:    validator.NewBookingValidator(cfg, cfg.Log),
		publisher:    publisher,
		cfg:          cfg,
		newReference: reference.New,
	}

	return &fixture{
		svc:       svc,
		inventory: inventory,
		bookings:  bookings,
		promos:    promos,
		publisher: publisher,
		cfg:       cfg,
	}
}

func testRequest(slots int) *model.BookingRequest {
	return &model.BookingRequest{
		ExperienceID:  testExperienceID,
		UserName:      "Jordan Lee",
		UserEmail:     "jordan@example.com",
		UserPhone:     "+14155551234",
		SelectedDate:  time.Now().UTC().Add(48 * time.Hour),
		NumberOfSlots: slots,
	}
}

func TestCreate_HappyPath(t *testing.T) {
	f := newFixture(t, 5)

	booking, err := f.svc.Create(context.Background(), testRequest(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != config.Confirmed {
		t.Errorf("expected status confirmed, got %q", booking.Status)
	}
	if !reference.IsWellFormed(booking.BookingReference) {
		t.Errorf("malformed booking reference %q", booking.BookingReference)
	}
	if booking.TotalAmount != 200 || booking.FinalAmount != 200 {
		t.Errorf("expected amounts 200/200, got %v/%v", booking.TotalAmount, booking.FinalAmount)
	}
	if got := f.inventory.availableNow(); got != 3 {
		t.Errorf("expected 3 slots remaining, got %d", got)
	}
	if f.publisher.count() != 1 {
		t.Errorf("expected one published event, got %d", f.publisher.count())
	}
}

func TestCreate_WithPromo(t *testing.T) {
	f := newFixture(t, 5)

	req := testRequest(2)
	req.PromoCode = "SAVE10"

	booking, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.TotalAmount != 200 {
		t.Errorf("expected subtotal 200, got %v", booking.TotalAmount)
	}
	if booking.DiscountAmount != 20 {
		t.Errorf("expected discount 20, got %v", booking.DiscountAmount)
	}
	if booking.FinalAmount != 180 {
		t.Errorf("expected final amount 180, got %v", booking.FinalAmount)
	}
	if got := f.promos.usedCount(); got != 1 {
		t.Errorf("expected promo used once, got %d", got)
	}
}

func TestCreate_InsufficientCapacity(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.Create(context.Background(), testRequest(3))

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInsufficientCapacity {
		t.Errorf("expected code %s, got %s", apperrors.CodeInsufficientCapacity, appErr.Code)
	}
	if got := f.inventory.availableNow(); got != 2 {
		t.Errorf("failed reservation must not change availability, got %d", got)
	}
	if f.bookings.stored() != 0 {
		t.Errorf("no booking should be persisted, got %d", f.bookings.stored())
	}
}

func TestCreate_ConcurrentNeverOverbooks(t *testing.T) {
	const available = 5
	const requests = 8

	f := newFixture(t, available)

	var wg sync.WaitGroup
	results := make(chan error, requests)

	wg.Add(requests)
	for i := 0; i < requests; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), testRequest(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInsufficientCapacity {
			t.Errorf("unexpected error: %v", err)
			continue
		}
		rejected++
	}

	if succeeded != available {
		t.Errorf("expected exactly %d confirmed bookings, got %d", available, succeeded)
	}
	if rejected != requests-available {
		t.Errorf("expected %d capacity rejections, got %d", requests-available, rejected)
	}
	if got := f.inventory.availableNow(); got != 0 {
		t.Errorf("expected 0 slots remaining, got %d", got)
	}
	if f.bookings.stored() != available {
		t.Errorf("expected %d persisted bookings, got %d", available, f.bookings.stored())
	}
}

func TestCreate_ConcurrentPartialFits(t *testing.T) {
	// 5 available; one request for 3 and one for 2 must both succeed in
	// either order, never leaving available negative.
	f := newFixture(t, 5)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for _, n := range []int{3, 2} {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), testRequest(n))
			results <- err
		}(n)
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if got := f.inventory.availableNow(); got != 0 {
		t.Errorf("expected 0 slots remaining, got %d", got)
	}
}

func TestCreate_SucceedsWithoutReserveSnapshot(t *testing.T) {
	f := newFixture(t, 5)
	f.svc.inventory = &nilSnapshotInventory{inner: f.inventory}

	booking, err := f.svc.Create(context.Background(), testRequest(2))
	if err != nil {
		t.Fatalf("a reservation without a snapshot must still confirm: %v", err)
	}

	if booking.Status != config.Confirmed {
		t.Errorf("expected status confirmed, got %q", booking.Status)
	}
	if got := f.inventory.availableNow(); got != 3 {
		t.Errorf("expected 3 slots remaining, got %d", got)
	}
	if f.bookings.stored() != 1 {
		t.Errorf("expected one persisted booking, got %d", f.bookings.stored())
	}
}

func TestCreate_PromoFailureReleasesSlots(t *testing.T) {
	f := newFixture(t, 5)
	minAmount := 500.0
	f.promos.promo.MinAmount = &minAmount

	req := testRequest(2) // subtotal 200, below the 500 minimum
	req.PromoCode = "SAVE10"

	_, err := f.svc.Create(context.Background(), req)

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodePromoRejected {
		t.Errorf("expected code %s, got %s", apperrors.CodePromoRejected, appErr.Code)
	}
	if got := f.inventory.availableNow(); got != 5 {
		t.Errorf("slots must be released after promo failure, got %d available", got)
	}
	if got := f.promos.usedCount(); got != 0 {
		t.Errorf("rejected promo must not consume usage, got %d", got)
	}
	if f.bookings.stored() != 0 {
		t.Errorf("no booking should be persisted, got %d", f.bookings.stored())
	}
}

func TestCreate_PersistenceFailureCompensates(t *testing.T) {
	f := newFixture(t, 5)
	f.bookings.createErr = errors.New("write concern error")

	req := testRequest(2)
	req.PromoCode = "SAVE10"

	_, err := f.svc.Create(context.Background(), req)

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeUnavailable, appErr.Code)
	}
	if got := f.inventory.availableNow(); got != 5 {
		t.Errorf("slots must be released after persistence failure, got %d available", got)
	}
	if got := f.promos.usedCount(); got != 0 {
		t.Errorf("promo usage must be reverted after persistence failure, got %d", got)
	}
	if f.publisher.count() != 0 {
		t.Errorf("no event should be published for a failed booking")
	}
}

func TestCreate_ReferenceCollisionRetries(t *testing.T) {
	f := newFixture(t, 5)

	colliding := reference.New()
	fresh := reference.New()
	if _, err := f.svc.Create(context.Background(), testRequest(1)); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	// Seed a booking under the colliding reference directly.
	f.bookings.byRef[colliding] = &model.Booking{BookingReference: colliding}

	calls := 0
	f.svc.newReference = func() string {
		calls++
		if calls == 1 {
			return colliding
		}
		return fresh
	}

	booking, err := f.svc.Create(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.BookingReference != fresh {
		t.Errorf("expected the retried reference, got %q", booking.BookingReference)
	}
	if calls != 2 {
		t.Errorf("expected 2 mint attempts, got %d", calls)
	}
}

func TestCreate_ReferenceRetriesExhausted(t *testing.T) {
	f := newFixture(t, 5)

	colliding := reference.New()
	f.bookings.byRef[colliding] = &model.Booking{BookingReference: colliding}

	calls := 0
	f.svc.newReference = func() string {
		calls++
		return colliding
	}

	_, err := f.svc.Create(context.Background(), testRequest(2))

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInternal {
		t.Errorf("expected code %s, got %s", apperrors.CodeInternal, appErr.Code)
	}
	if calls != f.cfg.ReferenceRetryLimit {
		t.Errorf("expected %d mint attempts, got %d", f.cfg.ReferenceRetryLimit, calls)
	}
	if got := f.inventory.availableNow(); got != 5 {
		t.Errorf("slots must be released after retry exhaustion, got %d available", got)
	}
}

func TestCreate_ValidationFailureHasNoSideEffects(t *testing.T) {
	f := newFixture(t, 5)

	req := testRequest(0) // invalid slot count

	_, err := f.svc.Create(context.Background(), req)

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	if got := f.inventory.availableNow(); got != 5 {
		t.Errorf("validation failure must not touch inventory, got %d", got)
	}
	if f.bookings.stored() != 0 {
		t.Errorf("validation failure must not persist anything")
	}
}

func TestCreate_UnknownExperience(t *testing.T) {
	f := newFixture(t, 5)

	req := testRequest(1)
	req.ExperienceID = "507f1f77bcf86cd799439099"

	_, err := f.svc.Create(context.Background(), req)

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
	if got := f.inventory.availableNow(); got != 5 {
		t.Errorf("unknown experience must not touch inventory, got %d", got)
	}
}

func TestGetByReference_Malformed(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.svc.GetByReference(context.Background(), "not-a-reference")

	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

var _ promosservice.PromoService = (*fakePromos)(nil)

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	inventoryerrors "bookit/internal/inventory/errors"
	"bookit/pkg/config"
	"bookit/pkg/logger"
	"bookit/pkg/model"
)

const (
	// CollectionName is the experiences collection; slots are embedded per
	// experience document, which is what makes single-statement atomic
	// updates possible.
	CollectionName = "Experiences"
)

// InventoryRepository owns slot counters. Reserve and Release are the only
// ways available is ever mutated; both are single atomic MongoDB statements
// scoped to one document, so concurrent calls against the same slot are
// linearized by the storage engine and calls against different slots never
// contend.
type InventoryRepository interface {
	// Reserve atomically checks available >= n and decrements in the same
	// statement. Returns the slot state after the decrement when it can be
	// read back; a nil slot with a nil error means the reservation applied
	// but the snapshot read failed. A non-nil error always means nothing
	// was reserved, so it is safe for callers to skip Release.
	Reserve(ctx context.Context, experienceID string, date time.Time, n int) (*model.Slot, error)

	// Release is the compensating operation for Reserve. It restores up to n
	// seats, clamped so available never exceeds max_capacity.
	Release(ctx context.Context, experienceID string, date time.Time, n int) error

	// FindSlot returns the slot for the calendar day of date, read-only.
	FindSlot(ctx context.Context, experienceID string, date time.Time) (*model.Slot, error)
}

type mongoInventoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInventoryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoInventoryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoInventoryRepository) Reserve(ctx context.Context, experienceID string, date time.Time, n int) (*model.Slot, error) {
	if n <= 0 {
		return nil, inventoryerrors.ErrInvalidQuantity
	}

	objectID, err := primitive.ObjectIDFromHex(experienceID)
	if err != nil {
		return nil, fmt.Errorf("invalid experience ID %q: %w", experienceID, err)
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dayStart, dayEnd := model.DayRange(date)

	// Check-and-decrement as one conditional update. The $elemMatch filter
	// only matches while available >= n, so the decrement can never push
	// available below zero regardless of interleaving.
	filter := bson.M{
		"_id": objectID,
		"slots": bson.M{"$elemMatch": bson.M{
			"date":      bson.M{"$gte": dayStart, "$lt": dayEnd},
			"available": bson.M{"$gte": n},
		}},
	}
	update := bson.M{"$inc": bson.M{"slots.$.available": -n}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve slots: %w", err)
	}

	if result.ModifiedCount == 0 {
		// Nothing matched: either the slot does not exist for that day, or
		// it exists with too few seats. Classify with a read.
		if _, findErr := r.FindSlot(ctx, experienceID, date); findErr != nil {
			return nil, findErr
		}
		return nil, inventoryerrors.ErrInsufficientCapacity
	}

	// The decrement is durably applied at this point; the snapshot below is
	// informational. A failed read here must not surface as a failed
	// reservation, or the caller would skip Release and leak the seats.
	slot, err := r.FindSlot(ctx, experienceID, date)
	return confirmedSlot(slot, err, r.cfg.Log, experienceID)
}

// confirmedSlot shapes the post-reserve snapshot read for an update that
// already applied: a read error is logged and suppressed, never returned.
func confirmedSlot(slot *model.Slot, readErr error, log *logger.Logger, experienceID string) (*model.Slot, error) {
	if readErr != nil {
		log.Warn("Reservation applied but slot snapshot read failed",
			"experience_id", experienceID,
			"error", readErr,
		)
		return nil, nil
	}
	return slot, nil
}

func (r *mongoInventoryRepository) Release(ctx context.Context, experienceID string, date time.Time, n int) error {
	if n <= 0 {
		return inventoryerrors.ErrInvalidQuantity
	}

	objectID, err := primitive.ObjectIDFromHex(experienceID)
	if err != nil {
		return fmt.Errorf("invalid experience ID %q: %w", experienceID, err)
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dayStart, dayEnd := model.DayRange(date)

	filter := bson.M{
		"_id": objectID,
		"slots": bson.M{"$elemMatch": bson.M{
			"date": bson.M{"$gte": dayStart, "$lt": dayEnd},
		}},
	}

	// Aggregation-pipeline update: available = min(maxCapacity, available+n)
	// for the matching day, everything else untouched. Single statement, so
	// the clamp and the increment cannot be observed separately.
	dayMatch := bson.M{"$and": bson.A{
		bson.M{"$gte": bson.A{"$$slot.date", dayStart}},
		bson.M{"$lt": bson.A{"$$slot.date", dayEnd}},
	}}
	restored := bson.M{"$min": bson.A{
		"$$slot.max_capacity",
		bson.M{"$add": bson.A{"$$slot.available", n}},
	}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"slots": bson.M{"$map": bson.M{
				"input": "$slots",
				"as":    "slot",
				"in": bson.M{"$cond": bson.A{
					dayMatch,
					bson.M{"$mergeObjects": bson.A{
						"$$slot",
						bson.M{"available": restored},
					}},
					"$$slot",
				}},
			}},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}

	if result.MatchedCount == 0 {
		return inventoryerrors.ErrSlotNotFound
	}

	return nil
}

func (r *mongoInventoryRepository) FindSlot(ctx context.Context, experienceID string, date time.Time) (*model.Slot, error) {
	objectID, err := primitive.ObjectIDFromHex(experienceID)
	if err != nil {
		return nil, fmt.Errorf("invalid experience ID %q: %w", experienceID, err)
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var experience model.Experience
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&experience)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to load experience inventory: %w", err)
	}

	slot := experience.SlotForDate(date)
	if slot == nil {
		return nil, inventoryerrors.ErrSlotNotFound
	}

	return slot, nil
}

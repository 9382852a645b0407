package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	promoserrors "bookit/internal/promos/errors"
	"bookit/pkg/config"
	"bookit/pkg/model"
)

const (
	CollectionName = "Promos"
)

// PromoRepository owns the used_count counter. ConsumeUsage is the only way
// it increases, and the limit check and the increment are one atomic
// statement: concurrent consumers past the limit all see no match, never a
// stale pass.
type PromoRepository interface {
	// FindByCode returns the active promo for a code (expected uppercase).
	FindByCode(ctx context.Context, code string) (*model.Promo, error)

	// ConsumeUsage atomically increments used_count while used_count <
	// usage_limit, returning the post-increment promo. Returns
	// ErrPromoExhausted when the limit has been reached.
	ConsumeUsage(ctx context.Context, code string) (*model.Promo, error)

	// ReleaseUsage is the compensating decrement, floored at zero. Used when
	// booking persistence fails after a promo was consumed.
	ReleaseUsage(ctx context.Context, code string) error
}

type mongoPromoRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPromoRepository(cfg *config.Config) PromoRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPromoRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPromoRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPromoRepository) FindByCode(ctx context.Context, code string) (*model.Promo, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"code":      code,
		"is_active": true,
	}

	var promo model.Promo
	err := r.collection.FindOne(ctx, filter).Decode(&promo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, promoserrors.ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to find promo: %w", err)
	}

	return &promo, nil
}

func (r *mongoPromoRepository) ConsumeUsage(ctx context.Context, code string) (*model.Promo, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"code":      code,
		"is_active": true,
		"$expr":     bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}},
	}
	update := bson.M{"$inc": bson.M{"used_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var promo model.Promo
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&promo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The promo was either exhausted or deactivated since it was
			// read; both mean this consumption is refused.
			return nil, promoserrors.ErrPromoExhausted
		}
		return nil, fmt.Errorf("failed to consume promo usage: %w", err)
	}

	return &promo, nil
}

func (r *mongoPromoRepository) ReleaseUsage(ctx context.Context, code string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"code":       code,
		"used_count": bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"used_count": -1}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release promo usage: %w", err)
	}

	return nil
}

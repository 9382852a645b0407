package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	experienceserrors "bookit/internal/experiences/errors"
	inventoryrepo "bookit/internal/inventory/repository"
	"bookit/pkg/config"
	"bookit/pkg/model"
)

// ExperienceRepository is the read-only catalog view over the experiences
// collection. Slot counters in the returned documents are snapshots; all
// mutation goes through the inventory repository.
type ExperienceRepository interface {
	FindByID(ctx context.Context, id string) (*model.Experience, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Experience, error)
	Count(ctx context.Context) (int64, error)
}

type mongoExperienceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoExperienceRepository(cfg *config.Config) ExperienceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoExperienceRepository{
		cfg:        cfg,
		collection: db.Collection(inventoryrepo.CollectionName),
	}
}

func (r *mongoExperienceRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoExperienceRepository) FindByID(ctx context.Context, id string) (*model.Experience, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", experienceserrors.ErrInvalidID, id)
	}

	var experience model.Experience
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&experience)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, experienceserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find experience: %w", err)
	}

	return &experience, nil
}

func (r *mongoExperienceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Experience, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find experiences: %w", err)
	}
	defer cursor.Close(ctx)

	var experiences []*model.Experience
	if err = cursor.All(ctx, &experiences); err != nil {
		return nil, fmt.Errorf("failed to decode experiences: %w", err)
	}

	return experiences, nil
}

func (r *mongoExperienceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count experiences: %w", err)
	}

	return count, nil
}

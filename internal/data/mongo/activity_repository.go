package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/household-daily-budget/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the household activity feed collection
	ActivityCollectionName = "household_activity"

	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityRepository implements activity.Repository for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) activity.Repository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// ActivityIndexes are the indexes used by the feed queries
func ActivityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "household_id", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("household_occurred_at"),
		},
	}
}

// Create stores a feed item. Redelivered events carry the same record ID and are ignored.
func (r *ActivityRepository) Create(ctx context.Context, record *activity.Record) error {
	collection := r.db.Collection(ActivityCollectionName)

	if _, err := collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		r.logger.Error("Failed to record household activity",
			"household_id", record.HouseholdID.String(),
			"type", record.Type,
			"error", err)
		return fmt.Errorf("failed to record household activity: %w", err)
	}

	return nil
}

// ListByHousehold returns the newest feed items first
func (r *ActivityRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID, limit, offset int) ([]*activity.Record, error) {
	collection := r.db.Collection(ActivityCollectionName)

	limit, offset = clampPage(limit, offset)
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, bson.M{"household_id": householdID}, opts)
	if err != nil {
		r.logger.Error("Failed to list household activity", "household_id", householdID.String(), "error", err)
		return nil, fmt.Errorf("failed to list household activity: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*activity.Record, 0, limit)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode household activity: %w", err)
	}

	return records, nil
}

// DeleteOlderThan prunes feed items that occurred before cutoff
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	result, err := collection.DeleteMany(ctx, bson.M{"occurred_at": bson.M{"$lt": cutoff}})
	if err != nil {
		r.logger.Error("Failed to prune household activity", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune household activity: %w", err)
	}

	return result.DeletedCount, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

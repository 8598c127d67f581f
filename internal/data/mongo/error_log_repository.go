package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/household-daily-budget/internal/domain/activity"
)

// ErrorLogCollectionName is the collection holding failed store operations
const ErrorLogCollectionName = "error_logs"

// ErrorLogRepository implements activity.ErrorLogRepository for MongoDB
type ErrorLogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewErrorLogRepository creates a new MongoDB error log repository
func NewErrorLogRepository(logger *slog.Logger, db *mongo.Database) activity.ErrorLogRepository {
	return &ErrorLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ErrorLogRepository) Create(ctx context.Context, log *activity.ErrorLog) error {
	collection := r.db.Collection(ErrorLogCollectionName)

	if _, err := collection.InsertOne(ctx, log); err != nil {
		r.logger.Error("Failed to persist error log",
			"operation", log.Operation,
			"error", err)
		return fmt.Errorf("failed to persist error log: %w", err)
	}

	return nil
}

// CountSince counts unresolved failures recorded at or after since
func (r *ErrorLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	collection := r.db.Collection(ErrorLogCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{
		"occurred_at": bson.M{"$gte": since},
		"resolved":    false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count error logs: %w", err)
	}

	return count, nil
}

func (r *ErrorLogRepository) DeleteResolvedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	collection := r.db.Collection(ErrorLogCollectionName)

	result, err := collection.DeleteMany(ctx, bson.M{
		"occurred_at": bson.M{"$lt": cutoff},
		"resolved":    true,
	})
	if err != nil {
		r.logger.Error("Failed to prune error logs", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune error logs: %w", err)
	}

	return result.DeletedCount, nil
}

// Package mongo provides MongoDB implementations of the household ledger, the activity
// feed and the error log.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/household-daily-budget/internal/domain/ledger"
	"github.com/household-daily-budget/internal/domain/shared"
)

const (
	// LedgerCollectionName is the name of the ledger collection in MongoDB
	LedgerCollectionName = "ledger_entries"
)

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new MongoDB ledger repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) ledger.Repository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// LedgerIndexes are the indexes the ledger queries rely on
func LedgerIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "household_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("household_date"),
		},
		{
			Keys: bson.D{{Key: "household_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetName("household_idempotency_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{
				{Key: "household_id", Value: 1},
				{Key: "author_id", Value: 1},
				{Key: "amount", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("household_author_recent"),
		},
	}
}

// Create inserts a new entry. A reused idempotency key yields ErrDuplicateEntry.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	collection := r.db.Collection(LedgerCollectionName)

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{EntryID: entry.ID}
		}
		r.logger.Error("Failed to create ledger entry",
			"entry_id", entry.ID.String(),
			"household_id", entry.HouseholdID.String(),
			"error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry or returns ErrEntryNotFound
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	var entry ledger.Entry
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get ledger entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return &entry, nil
}

// GetByIdempotencyKey retrieves the entry a client token produced, or nil when none did
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, householdID uuid.UUID, key string) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	var entry ledger.Entry
	err := collection.FindOne(ctx, bson.M{"household_id": householdID, "idempotency_key": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to get ledger entry by idempotency key",
			"household_id", householdID.String(),
			"idempotency_key", key,
			"error", err)
		return nil, fmt.Errorf("failed to get ledger entry by idempotency key: %w", err)
	}

	return &entry, nil
}

// FindRecentDuplicate returns the earliest entry matching key created at or after since, or nil
func (r *LedgerRepository) FindRecentDuplicate(ctx context.Context, key ledger.DuplicateKey, since time.Time) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var entry ledger.Entry
	err := collection.FindOne(ctx, duplicateFilter(key, since), opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to look up duplicate ledger entry",
			"household_id", key.HouseholdID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to look up duplicate ledger entry: %w", err)
	}

	return &entry, nil
}

// Update sets the fields present in patch and increments the version in one atomic
// operation, returning the document as it was before the write
func (r *LedgerRepository) Update(ctx context.Context, id uuid.UUID, patch ledger.Patch, updatedAt time.Time) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before ledger.Entry
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, patchUpdate(patch, updatedAt), opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to update ledger entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	return &before, nil
}

// Delete removes an entry and returns it as it was
func (r *LedgerRepository) Delete(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	var before ledger.Entry
	err := collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to delete ledger entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to delete ledger entry: %w", err)
	}

	return &before, nil
}

// QueryByHouseholdAndDate returns every entry of the household on one calendar day
func (r *LedgerRepository) QueryByHouseholdAndDate(ctx context.Context, householdID uuid.UUID, date time.Time) ([]*ledger.Entry, error) {
	return r.find(ctx, bson.M{"household_id": householdID, "date": date})
}

// QueryByHouseholdAndDateRange returns entries with from <= date <= to, oldest first
func (r *LedgerRepository) QueryByHouseholdAndDateRange(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]*ledger.Entry, error) {
	return r.find(ctx, bson.M{
		"household_id": householdID,
		"date":         bson.M{"$gte": from, "$lte": to},
	})
}

func (r *LedgerRepository) find(ctx context.Context, filter bson.M) ([]*ledger.Entry, error) {
	collection := r.db.Collection(LedgerCollectionName)

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query ledger entries", "error", err)
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*ledger.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode ledger entries", "error", err)
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	return entries, nil
}

func duplicateFilter(key ledger.DuplicateKey, since time.Time) bson.M {
	return bson.M{
		"household_id": key.HouseholdID,
		"author_id":    key.AuthorID,
		"description":  key.Description,
		"amount":       key.Amount,
		"date":         key.Date,
		"created_at":   bson.M{"$gte": since},
	}
}

// patchUpdate leaves fields the patch does not carry untouched so concurrent writes to them survive
func patchUpdate(patch ledger.Patch, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if patch.Description != nil {
		set["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Subcategory != nil {
		set["subcategory"] = *patch.Subcategory
	}
	if patch.Amount != nil {
		set["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Direction != nil {
		set["direction"] = *patch.Direction
	}
	if patch.Date != nil {
		set["date"] = shared.NormalizeDate(*patch.Date)
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	return bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
}

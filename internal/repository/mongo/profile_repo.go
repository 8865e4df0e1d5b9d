// internal/repository/mongo/profile_repo.go
package mongo

import (
	"alcyxob/runplan/internal/domain"
	"alcyxob/runplan/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultProfileCollection is used when no collection name is configured.
const DefaultProfileCollection = "profiles"

// mongoProfileRepository implements repository.ProfileRepository using MongoDB.
type mongoProfileRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoProfileRepository creates a profile repository on the given collection.
func NewMongoProfileRepository(db *mongo.Database, collectionName string) repository.ProfileRepository {
	if collectionName == "" {
		collectionName = DefaultProfileCollection
	}
	return newProfileRepository(db.Collection(collectionName))
}

func newProfileRepository(coll *mongo.Collection) *mongoProfileRepository {
	return &mongoProfileRepository{
		collection: coll,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Upsert replaces the whole document for the subject in a single write.
// A replace (not $set) clears whatever the previous outcome left behind.
func (r *mongoProfileRepository) Upsert(ctx context.Context, record *domain.ProfileRecord) error {
	if record == nil || record.SubjectID == "" {
		return errors.New("profile record requires a subject id")
	}
	record.UpdatedAt = r.now()

	filter := bson.M{"_id": record.SubjectID}
	opts := options.Replace().SetUpsert(true)

	result, err := r.collection.ReplaceOne(ctx, filter, record, opts)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", record.SubjectID, err)
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// GetBySubjectID retrieves the stored record for a subject.
func (r *mongoProfileRepository) GetBySubjectID(ctx context.Context, subjectID string) (*domain.ProfileRecord, error) {
	var record domain.ProfileRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": subjectID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// EnsureProfileIndexes creates the indexes used to find failed generations.
func EnsureProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Successful runs store an explicit null, so filter on type rather than existence
			Keys: bson.D{{Key: "planGenerationError", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				"planGenerationError": bson.M{"$type": "string"},
			}),
		},
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create profile indexes: %w", err)
	}
	return nil
}

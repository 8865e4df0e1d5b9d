package mongo

import (
	"alcyxob/runplan/internal/domain"
	"alcyxob/runplan/internal/repository"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sampleProfile() domain.Profile {
	return domain.Profile{Experience: "beginner", Goal: "5k", RunDays: []string{"Monday", "Thursday"}}
}

func fixedClock(repo *mongoProfileRepository) time.Time {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return at }
	return at
}

func TestProfileRepository_Upsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts new subject", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		at := fixedClock(repo)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "user-1"}}}},
		))

		rec := domain.NewProfileRecord("user-1", sampleProfile(), domain.PlanSuccess{Plan: domain.NewWorkoutPlan()})
		require.NoError(t, repo.Upsert(context.Background(), &rec))
		assert.Equal(t, at, rec.UpdatedAt)
	})

	mt.Run("replaces existing subject", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		rec := domain.NewProfileRecord("user-1", sampleProfile(), domain.PlanFailure{Err: errors.New("boom")})
		assert.NoError(t, repo.Upsert(context.Background(), &rec))
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad document",
		}))

		rec := domain.NewProfileRecord("user-1", sampleProfile(), domain.PlanSuccess{Plan: domain.NewWorkoutPlan()})
		err := repo.Upsert(context.Background(), &rec)
		assert.ErrorContains(t, err, "upsert profile user-1")
	})

	mt.Run("requires subject", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		assert.Error(t, repo.Upsert(context.Background(), &domain.ProfileRecord{}))
		assert.Error(t, repo.Upsert(context.Background(), nil))
	})
}

func TestProfileRepository_GetBySubjectID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "user-1"},
			{Key: "experience", Value: "beginner"},
			{Key: "goal", Value: "5k"},
			{Key: "run_days", Value: bson.A{"Monday"}},
			{Key: "workout_plan", Value: nil},
			{Key: "planGenerationError", Value: "all generation providers failed"},
			{Key: "rawAIResponse", Value: domain.NoResponseSentinel},
		}))

		rec, err := repo.GetBySubjectID(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", rec.SubjectID)
		assert.Equal(t, "beginner", rec.Experience)
		assert.False(t, rec.Succeeded())
		require.NotNil(t, rec.RawAIResponse)
		assert.Equal(t, domain.NoResponseSentinel, *rec.RawAIResponse)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := newProfileRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetBySubjectID(context.Background(), "nobody")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

// The stored document must always carry both outcome sides so a replace clears the stale one.
func TestProfileRecordDocumentShape(t *testing.T) {
	for name, outcome := range map[string]domain.PlanOutcome{
		"success": domain.PlanSuccess{Plan: domain.NewWorkoutPlan(), GeneratedBy: "mock/canned"},
		"failure": domain.PlanFailure{Err: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			rec := domain.NewProfileRecord("user-1", sampleProfile(), outcome)
			raw, err := bson.Marshal(rec)
			require.NoError(t, err)

			var doc bson.M
			require.NoError(t, bson.Unmarshal(raw, &doc))

			for _, key := range []string{"_id", "experience", "goal", "run_days", "workout_plan", "planGenerationError", "rawAIResponse"} {
				assert.Contains(t, doc, key)
			}
			if rec.Succeeded() {
				assert.Nil(t, doc["planGenerationError"])
				assert.Nil(t, doc["rawAIResponse"])
			} else {
				assert.Nil(t, doc["workout_plan"])
			}
		})
	}
}

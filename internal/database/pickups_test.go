package database

import (
	"context"
	"testing"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func samplePickup(id string, status models.PickupStatus) models.Pickup {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return models.Pickup{
		ID:          id,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      status,
		CreatedBy:   models.Creator{UserID: "u1", DisplayName: "Ana"},
		AddressData: models.AddressData{Address: "12 Elm St"},
		PickupDate:  now.Add(48 * time.Hour),
		Materials: []models.MaterialEntry{
			{Type: models.MaterialPlastic, StorageMethod: models.StorageGreanBin},
		},
		DisclaimerAccepted: true,
	}
}

func TestPickupRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := mtest.TestDb + "." + PickupsCollection

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "nope")

		assert.Equal(mt, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	mt.Run("find by creator", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			toDoc(t, samplePickup("p1", models.StatusPending)),
			toDoc(t, samplePickup("p2", models.StatusCompleted)),
		))

		pickups, err := repo.FindByCreator(context.Background(), "u1")

		require.NoError(mt, err)
		require.Len(mt, pickups, 2)
		assert.Equal(mt, "p1", pickups[0].ID)
		assert.Equal(mt, models.StatusCompleted, pickups[1].Status)
		assert.Equal(mt, models.StorageGreanBin, pickups[0].Materials[0].StorageMethod)
	})

	mt.Run("empty result is not nil", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		pickups, err := repo.FindByStatus(context.Background(), models.StatusPending)

		require.NoError(mt, err)
		assert.NotNil(mt, pickups)
		assert.Empty(mt, pickups)
	})

	mt.Run("transition applies", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		updated := samplePickup("p1", models.StatusAccepted)
		updated.AcceptedBy = "d1"
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, updated)}))

		p, err := repo.Transition(context.Background(), models.Transition{
			PickupID: "p1", To: models.StatusAccepted, AcceptedBy: "d1", At: time.Now(),
		})

		require.NoError(mt, err)
		assert.Equal(mt, models.StatusAccepted, p.Status)
		assert.Equal(mt, "d1", p.AcceptedBy)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "p1", cmd.Lookup("query", "_id").StringValue())
		statuses, err := cmd.Lookup("query", "status", "$in").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, statuses, 1)
		assert.Equal(mt, "pending", statuses[0].StringValue())
		assert.Equal(mt, "d1", cmd.Lookup("update", "$set", "acceptedBy").StringValue())
	})

	mt.Run("transition from a terminal status", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, samplePickup("p1", models.StatusCompleted))),
		)

		_, err := repo.Transition(context.Background(), models.Transition{PickupID: "p1", To: models.StatusCancelled, At: time.Now()})

		assert.Equal(mt, apperr.CodeFailedPrecondition, apperr.CodeOf(err))
	})

	mt.Run("transition by another driver", func(mt *mtest.T) {
		repo := NewPickupRepository(mt.DB)
		held := samplePickup("p1", models.StatusAccepted)
		held.AcceptedBy = "d2"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, held)),
		)

		_, err := repo.Transition(context.Background(), models.Transition{PickupID: "p1", To: models.StatusInProgress, DriverID: "d1", At: time.Now()})

		assert.Equal(mt, apperr.CodePermissionDenied, apperr.CodeOf(err))
	})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := mtest.TestDb + "." + UsersCollection

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Insert(context.Background(), &models.User{ID: "u1", Email: "ana@example.com"})

		assert.Equal(mt, apperr.CodeFailedPrecondition, apperr.CodeOf(err))
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, models.User{
			ID: "u1", Email: "ana@example.com", Password: "hash", AccountType: models.AccountClient,
		})))

		u, err := repo.FindByEmail(context.Background(), "ana@example.com")

		require.NoError(mt, err)
		assert.Equal(mt, "u1", u.ID)
		assert.Equal(mt, "hash", u.Password)
	})

	mt.Run("update missing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.UpdateFields(context.Background(), "ghost", map[string]any{"displayName": "X"})

		assert.Equal(mt, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

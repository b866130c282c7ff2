// internal/database/pickups.go
package database

import (
	"context"
	"errors"
	"fmt"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PickupRepository struct {
	coll *mongo.Collection
}

func NewPickupRepository(db *mongo.Database) *PickupRepository {
	return &PickupRepository{coll: db.Collection(PickupsCollection)}
}

func (r *PickupRepository) Insert(ctx context.Context, p *models.Pickup) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert pickup: %w", err)
	}
	return nil
}

func (r *PickupRepository) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	var p models.Pickup
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.CodeNotFound, "pickup %s not found", id)
		}
		return nil, fmt.Errorf("failed to find pickup %s: %w", id, err)
	}
	return &p, nil
}

// FindByCreator returns the user's pickups, newest first.
func (r *PickupRepository) FindByCreator(ctx context.Context, userID string) ([]models.Pickup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"createdBy.userId": userID}, opts)
}

// FindByStatus returns pickups in any of statuses, earliest pickup date first.
// No statuses means every pickup.
func (r *PickupRepository) FindByStatus(ctx context.Context, statuses ...models.PickupStatus) ([]models.Pickup, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "pickupDate", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindByDriver returns the pickups a driver holds in any of statuses.
func (r *PickupRepository) FindByDriver(ctx context.Context, driverID string, statuses ...models.PickupStatus) ([]models.Pickup, error) {
	filter := bson.M{"acceptedBy": driverID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "pickupDate", Value: 1}})
	return r.find(ctx, filter, opts)
}

// Transition applies t atomically. When no document matches, the current
// record decides between not-found, permission-denied and failed-precondition.
func (r *PickupRepository) Transition(ctx context.Context, t models.Transition) (*models.Pickup, error) {
	filter := bson.M{
		"_id":    t.PickupID,
		"status": bson.M{"$in": models.PredecessorsOf(t.To)},
	}
	if t.DriverID != "" {
		filter["acceptedBy"] = t.DriverID
	}
	set := bson.M{"status": t.To, "updatedAt": t.At}
	if t.AcceptedBy != "" {
		set["acceptedBy"] = t.AcceptedBy
	}
	if t.ProofPhotoURL != "" {
		set["proofPhotoURL"] = t.ProofPhotoURL
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Pickup
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update pickup %s: %w", t.PickupID, err)
	}

	current, findErr := r.FindByID(ctx, t.PickupID)
	if findErr != nil {
		return nil, findErr
	}
	if !current.Status.CanTransitionTo(t.To) {
		return nil, apperr.New(apperr.CodeFailedPrecondition, "pickup is %s and cannot become %s", current.Status, t.To)
	}
	if t.DriverID != "" && current.AcceptedBy != t.DriverID {
		return nil, apperr.New(apperr.CodePermissionDenied, "pickup is assigned to another driver")
	}
	// Lost a race with a concurrent update that has since been undone.
	return nil, apperr.New(apperr.CodeFailedPrecondition, "pickup changed while updating, try again")
}

func (r *PickupRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Pickup, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pickups: %w", err)
	}
	defer cursor.Close(ctx)

	var pickups []models.Pickup
	if err = cursor.All(ctx, &pickups); err != nil {
		return nil, fmt.Errorf("failed to decode pickups: %w", err)
	}
	if pickups == nil {
		pickups = []models.Pickup{}
	}
	return pickups, nil
}

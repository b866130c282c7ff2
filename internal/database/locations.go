// internal/database/locations.go
package database

import (
	"context"
	"errors"
	"fmt"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type LocationRepository struct {
	coll *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{coll: db.Collection(LocationsCollection)}
}

func (r *LocationRepository) Insert(ctx context.Context, loc *models.Location) error {
	if _, err := r.coll.InsertOne(ctx, loc); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	var loc models.Location
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&loc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.CodeNotFound, "location %s not found", id)
		}
		return nil, fmt.Errorf("failed to find location %s: %w", id, err)
	}
	return &loc, nil
}

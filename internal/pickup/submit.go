package pickup

import (
	"context"

	"recycle-pickup-api-server/internal/models"
)

// PickupCreator is the backend's createPickup function, reached either
// in-process or over HTTP.
type PickupCreator interface {
	CreatePickup(ctx context.Context, caller models.Caller, req models.CreatePickupRequest) (*models.Pickup, error)
}

// BackendSubmitter packages finished form data into one create request.
type BackendSubmitter struct {
	Backend PickupCreator
}

// Submit sends data as a new pickup created by caller. It does not guard
// against concurrent calls; the wizard's submitting phase does.
func (s *BackendSubmitter) Submit(ctx context.Context, caller models.Caller, data FormData) (*models.Pickup, error) {
	creator := caller.Creator()
	req := models.CreatePickupRequest{
		PickupTime:         data.PickupTime,
		AddressData:        data.AddressData,
		Materials:          data.Materials,
		DisclaimerAccepted: data.DisclaimerAccepted,
		PickupNote:         data.PickupNote,
		CreatedBy:          &creator,
	}
	p, err := s.Backend.CreatePickup(ctx, caller, req)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	return p, nil
}

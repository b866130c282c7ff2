// internal/services/pickup_service.go
package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/catalog"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/pickup"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

type PickupStore interface {
	Insert(ctx context.Context, p *models.Pickup) error
	FindByID(ctx context.Context, id string) (*models.Pickup, error)
	FindByCreator(ctx context.Context, userID string) ([]models.Pickup, error)
	FindByStatus(ctx context.Context, statuses ...models.PickupStatus) ([]models.Pickup, error)
	FindByDriver(ctx context.Context, driverID string, statuses ...models.PickupStatus) ([]models.Pickup, error)
	Transition(ctx context.Context, t models.Transition) (*models.Pickup, error)
}

// PickupNotifier is told about every stored change. Implementations must not
// block; delivery failures are theirs to log.
type PickupNotifier interface {
	PickupCreated(p *models.Pickup)
	PickupUpdated(p *models.Pickup, from models.PickupStatus)
}

type PickupService struct {
	store    PickupStore
	notifier PickupNotifier
	now      func() time.Time
}

func NewPickupService(store PickupStore, notifier PickupNotifier) *PickupService {
	return &PickupService{store: store, notifier: notifier, now: time.Now}
}

// CreatePickup validates req as a whole and stores a pending pickup owned by
// caller. Any createdBy sent by the client is ignored.
func (s *PickupService) CreatePickup(ctx context.Context, caller models.Caller, req models.CreatePickupRequest) (*models.Pickup, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "sign in to request a pickup")
	}
	if caller.AccountType == models.AccountDriver {
		return nil, apperr.New(apperr.CodePermissionDenied, "drivers cannot request pickups")
	}

	pickupDate, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Pickup{
		ID:                 uuid.NewString(),
		CreatedAt:          now,
		UpdatedAt:          now,
		Status:             models.StatusPending,
		CreatedBy:          caller.Creator(),
		AddressData:        req.AddressData,
		PickupDate:         pickupDate,
		PickupNote:         strings.TrimSpace(req.PickupNote),
		Materials:          req.Materials,
		DisclaimerAccepted: req.DisclaimerAccepted,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.notifier.PickupCreated(p)
	return p, nil
}

func (s *PickupService) validateCreate(req models.CreatePickupRequest) (time.Time, error) {
	data := pickup.FormData{
		PickupTime:         req.PickupTime,
		AddressData:        req.AddressData,
		Materials:          req.Materials,
		DisclaimerAccepted: req.DisclaimerAccepted,
	}
	if len(req.Materials) == 0 {
		return time.Time{}, apperr.New(apperr.CodeInvalidArgument, "at least one material is required")
	}
	for _, step := range pickup.DefaultSteps {
		if !pickup.IsStepComplete(step, data) {
			return time.Time{}, apperr.New(apperr.CodeInvalidArgument, "the %s step is incomplete", step)
		}
	}
	for i, m := range req.Materials {
		if err := catalog.Validate(m); err != nil {
			return time.Time{}, apperr.Wrap(apperr.CodeInvalidArgument, err, "materials[%d] is invalid", i)
		}
		for j, photo := range m.Photos {
			if !models.IsRemotePhoto(photo) {
				return time.Time{}, apperr.New(apperr.CodeInvalidArgument, "materials[%d].photos[%d] must be an uploaded photo URL", i, j)
			}
		}
	}
	if !pickup.IsEligible(req.Materials) {
		return time.Time{}, pickup.ErrNotEligible
	}
	if err := validateCoordinates(req.AddressData); err != nil {
		return time.Time{}, err
	}

	pickupDate, err := time.Parse(time.RFC3339, req.PickupTime)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.CodeInvalidArgument, err, "pickupTime must be an RFC 3339 timestamp")
	}
	if !pickupDate.After(s.now()) {
		return time.Time{}, apperr.New(apperr.CodeInvalidArgument, "pickupTime must be in the future")
	}
	return pickupDate.UTC(), nil
}

func validateCoordinates(a models.AddressData) error {
	if (a.Latitude == nil) != (a.Longitude == nil) {
		return apperr.New(apperr.CodeInvalidArgument, "latitude and longitude must be given together")
	}
	if a.HasCoordinates() && (*a.Latitude < -90 || *a.Latitude > 90 || *a.Longitude < -180 || *a.Longitude > 180) {
		return apperr.New(apperr.CodeInvalidArgument, "coordinates are out of range")
	}
	return nil
}

// AcceptPickup assigns a pending pickup to the calling driver. When two
// drivers race, exactly one wins and the other gets failed-precondition.
func (s *PickupService) AcceptPickup(ctx context.Context, caller models.Caller, id string) (*models.Pickup, error) {
	if err := requireRole(caller, models.AccountDriver); err != nil {
		return nil, err
	}
	return s.transition(ctx, models.StatusPending, models.Transition{
		PickupID:   id,
		To:         models.StatusAccepted,
		AcceptedBy: caller.UserID,
	})
}

func (s *PickupService) StartPickup(ctx context.Context, caller models.Caller, id string) (*models.Pickup, error) {
	if err := requireRole(caller, models.AccountDriver); err != nil {
		return nil, err
	}
	return s.transition(ctx, models.StatusAccepted, models.Transition{
		PickupID: id,
		To:       models.StatusInProgress,
		DriverID: caller.UserID,
	})
}

// CompletePickup closes an in-progress pickup with a proof photo URL.
func (s *PickupService) CompletePickup(ctx context.Context, caller models.Caller, id, proofPhotoURL string) (*models.Pickup, error) {
	if err := requireRole(caller, models.AccountDriver); err != nil {
		return nil, err
	}
	if !models.IsRemotePhoto(proofPhotoURL) {
		return nil, apperr.New(apperr.CodeInvalidArgument, "a proof photo URL is required to complete a pickup")
	}
	return s.transition(ctx, models.StatusInProgress, models.Transition{
		PickupID:      id,
		To:            models.StatusCompleted,
		DriverID:      caller.UserID,
		ProofPhotoURL: proofPhotoURL,
	})
}

// CancelPickup is open to the creator and to admins while the pickup is
// pending or accepted.
func (s *PickupService) CancelPickup(ctx context.Context, caller models.Caller, id string) (*models.Pickup, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "sign in to cancel a pickup")
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.CreatedBy.UserID != caller.UserID && caller.AccountType != models.AccountAdmin {
		return nil, apperr.New(apperr.CodePermissionDenied, "only the requester can cancel this pickup")
	}
	return s.transition(ctx, current.Status, models.Transition{PickupID: id, To: models.StatusCancelled})
}

func (s *PickupService) transition(ctx context.Context, from models.PickupStatus, t models.Transition) (*models.Pickup, error) {
	if t.PickupID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "pickupId is required")
	}
	t.At = s.now().UTC()
	p, err := s.store.Transition(ctx, t)
	if err != nil {
		return nil, err
	}
	s.notifier.PickupUpdated(p, from)
	return p, nil
}

// GetPickup returns a pickup the caller may see: its creator, its driver,
// any driver while it is still pending, and admins.
func (s *PickupService) GetPickup(ctx context.Context, caller models.Caller, id string) (*models.Pickup, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.AccountType == models.AccountAdmin,
		p.CreatedBy.UserID == caller.UserID,
		p.AcceptedBy != "" && p.AcceptedBy == caller.UserID,
		caller.AccountType == models.AccountDriver && p.Status == models.StatusPending:
		return p, nil
	}
	// Not leaking existence to unrelated users.
	return nil, apperr.New(apperr.CodeNotFound, "pickup %s not found", id)
}

func (s *PickupService) ListMine(ctx context.Context, caller models.Caller) ([]models.Pickup, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "sign in to list pickups")
	}
	return s.store.FindByCreator(ctx, caller.UserID)
}

// ListAvailable returns pending pickups. With an origin they are ordered by
// distance from it, pickups without coordinates last; otherwise by date.
func (s *PickupService) ListAvailable(ctx context.Context, caller models.Caller, origin *orb.Point) ([]models.Pickup, error) {
	if err := requireRole(caller, models.AccountDriver, models.AccountAdmin); err != nil {
		return nil, err
	}
	pickups, err := s.store.FindByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}
	if origin != nil {
		SortByDistance(pickups, *origin)
	}
	return pickups, nil
}

// SortByDistance orders pickups by great-circle distance from origin.
func SortByDistance(pickups []models.Pickup, origin orb.Point) {
	dist := func(p models.Pickup) (float64, bool) {
		if !p.AddressData.HasCoordinates() {
			return 0, false
		}
		return geo.Distance(origin, orb.Point{*p.AddressData.Longitude, *p.AddressData.Latitude}), true
	}
	slices.SortStableFunc(pickups, func(a, b models.Pickup) int {
		da, okA := dist(a)
		db, okB := dist(b)
		switch {
		case okA && okB:
			return cmp.Compare(da, db)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}

// ListAssigned returns the calling driver's accepted and in-progress pickups.
func (s *PickupService) ListAssigned(ctx context.Context, caller models.Caller) ([]models.Pickup, error) {
	if err := requireRole(caller, models.AccountDriver); err != nil {
		return nil, err
	}
	return s.store.FindByDriver(ctx, caller.UserID, models.StatusAccepted, models.StatusInProgress)
}

// ListByStatus is the admin view; no statuses means all pickups.
func (s *PickupService) ListByStatus(ctx context.Context, caller models.Caller, statuses ...models.PickupStatus) ([]models.Pickup, error) {
	if err := requireRole(caller, models.AccountAdmin); err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, apperr.New(apperr.CodeInvalidArgument, "unknown status %q", st)
		}
	}
	return s.store.FindByStatus(ctx, statuses...)
}

func requireRole(caller models.Caller, roles ...models.AccountType) error {
	if caller.UserID == "" {
		return apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if !slices.Contains(roles, caller.AccountType) {
		return apperr.New(apperr.CodePermissionDenied, "this action is not available to %s accounts", caller.AccountType)
	}
	return nil
}

package routes

import (
	"context"
	"io"
	"slices"
	"sync"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
)

type memPickups struct {
	mu    sync.Mutex
	byID  map[string]models.Pickup
	order []string
}

func (m *memPickups) Insert(ctx context.Context, p *models.Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = *p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPickups) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "pickup %s not found", id)
	}
	return &p, nil
}

func (m *memPickups) filter(keep func(models.Pickup) bool) []models.Pickup {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Pickup{}
	for _, id := range m.order {
		if p := m.byID[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *memPickups) FindByCreator(ctx context.Context, userID string) ([]models.Pickup, error) {
	return m.filter(func(p models.Pickup) bool { return p.CreatedBy.UserID == userID }), nil
}

func (m *memPickups) FindByStatus(ctx context.Context, statuses ...models.PickupStatus) ([]models.Pickup, error) {
	return m.filter(func(p models.Pickup) bool { return len(statuses) == 0 || slices.Contains(statuses, p.Status) }), nil
}

func (m *memPickups) FindByDriver(ctx context.Context, driverID string, statuses ...models.PickupStatus) ([]models.Pickup, error) {
	return m.filter(func(p models.Pickup) bool {
		return p.AcceptedBy == driverID && (len(statuses) == 0 || slices.Contains(statuses, p.Status))
	}), nil
}

func (m *memPickups) Transition(ctx context.Context, t models.Transition) (*models.Pickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[t.PickupID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "pickup %s not found", t.PickupID)
	}
	if !p.Status.CanTransitionTo(t.To) {
		return nil, apperr.New(apperr.CodeFailedPrecondition, "pickup is %s and cannot become %s", p.Status, t.To)
	}
	if t.DriverID != "" && p.AcceptedBy != t.DriverID {
		return nil, apperr.New(apperr.CodePermissionDenied, "pickup is assigned to another driver")
	}
	p.Status = t.To
	p.UpdatedAt = t.At
	if t.AcceptedBy != "" {
		p.AcceptedBy = t.AcceptedBy
	}
	if t.ProofPhotoURL != "" {
		p.ProofPhotoURL = t.ProofPhotoURL
	}
	m.byID[p.ID] = p
	return &p, nil
}

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func (m *memUsers) Insert(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return apperr.New(apperr.CodeFailedPrecondition, "email %s is already registered", u.Email)
		}
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "user not found")
}

func (m *memUsers) UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	for k, v := range fields {
		switch k {
		case "displayName":
			u.DisplayName = v.(string)
		case "photoURL":
			u.PhotoURL = v.(string)
		case "accountType":
			u.AccountType = v.(models.AccountType)
		}
	}
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) AddLocationID(ctx context.Context, id, locationID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	u.LocationIDs = append(u.LocationIDs, locationID)
	m.byID[id] = u
	return &u, nil
}

type memLocations struct {
	mu   sync.Mutex
	byID map[string]models.Location
}

func (m *memLocations) Insert(ctx context.Context, loc *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[loc.ID] = *loc
	return nil
}

func (m *memLocations) FindByID(ctx context.Context, id string) (*models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.byID[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "location %s not found", id)
	}
	return &loc, nil
}

type memUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *memUploader) Upload(ctx context.Context, body io.Reader, key, contentType string) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

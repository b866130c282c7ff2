package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
)

type memPickups struct {
	mu      sync.Mutex
	pickups map[string]models.Pickup
	order   []string
}

func newMemPickups(ps ...models.Pickup) *memPickups {
	m := &memPickups{pickups: map[string]models.Pickup{}}
	for _, p := range ps {
		m.pickups[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *memPickups) Insert(ctx context.Context, p *models.Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pickups[p.ID] = *p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPickups) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickups[id]
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
		if p := m.pickups[id]; keep(p) {
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
	p, ok := m.pickups[t.PickupID]
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
	m.pickups[p.ID] = p
	return &p, nil
}

type notification struct {
	id   string
	to   models.PickupStatus
	from models.PickupStatus
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []string
	updated []notification
}

func (n *recordingNotifier) PickupCreated(p *models.Pickup) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, p.ID)
}

func (n *recordingNotifier) PickupUpdated(p *models.Pickup, from models.PickupStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, notification{id: p.ID, to: p.Status, from: from})
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUsers(us ...models.User) *memUsers {
	m := &memUsers{users: map[string]models.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Insert(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.New(apperr.CodeFailedPrecondition, "email %s is already registered", u.Email)
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "user not found")
}

func (m *memUsers) UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
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
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return &u, nil
}

func (m *memUsers) AddLocationID(ctx context.Context, id, locationID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	if !slices.Contains(u.LocationIDs, locationID) {
		u.LocationIDs = append(u.LocationIDs, locationID)
	}
	m.users[id] = u
	return &u, nil
}

type memLocations struct {
	mu        sync.Mutex
	locations map[string]models.Location
	fail      map[string]error
	delay     map[string]time.Duration
}

func newMemLocations(ls ...models.Location) *memLocations {
	m := &memLocations{locations: map[string]models.Location{}, fail: map[string]error{}, delay: map[string]time.Duration{}}
	for _, l := range ls {
		m.locations[l.ID] = l
	}
	return m
}

func (m *memLocations) Insert(ctx context.Context, loc *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.ID] = *loc
	return nil
}

func (m *memLocations) FindByID(ctx context.Context, id string) (*models.Location, error) {
	m.mu.Lock()
	d, err := m.delay[id], m.fail[id]
	loc, ok := m.locations[id]
	m.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "location %s not found", id)
	}
	return &loc, nil
}

type stubTokens struct{}

func (stubTokens) GenerateJWT(u models.User) (string, error) { return "token-" + u.ID, nil }

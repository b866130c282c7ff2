// internal/services/profile_service.go
package services

import (
	"context"
	"log"
	"net/mail"
	"strings"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/auth"
	"recycle-pickup-api-server/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	minPasswordLength   = 6
	locationConcurrency = 8
)

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) (*models.User, error)
	AddLocationID(ctx context.Context, id, locationID string) (*models.User, error)
}

type LocationStore interface {
	Insert(ctx context.Context, loc *models.Location) error
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type TokenIssuer interface {
	GenerateJWT(u models.User) (string, error)
}

type RegisterRequest struct {
	Email       string             `json:"email" binding:"required"`
	Password    string             `json:"password" binding:"required"`
	DisplayName string             `json:"displayName"`
	AccountType models.AccountType `json:"accountType"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by Register and SignIn.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UpdateProfileRequest carries only the fields being changed.
type UpdateProfileRequest struct {
	DisplayName *string             `json:"displayName"`
	PhotoURL    *string             `json:"photoURL"`
	AccountType *models.AccountType `json:"accountType"`
}

type SetAccountTypeRequest struct {
	UserID      string             `json:"userId"`
	AccountType models.AccountType `json:"accountType"`
}

type SaveLocationRequest struct {
	Name        string             `json:"name"`
	AddressData models.AddressData `json:"addressData"`
}

type ProfileService struct {
	users     UserStore
	locations LocationStore
	tokens    TokenIssuer
	now       func() time.Time
}

func NewProfileService(users UserStore, locations LocationStore, tokens TokenIssuer) *ProfileService {
	return &ProfileService{users: users, locations: locations, tokens: tokens, now: time.Now}
}

// Register creates a client or driver account and signs it in.
func (s *ProfileService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.New(apperr.CodeInvalidArgument, "password must be at least %d characters", minPasswordLength)
	}
	accountType := req.AccountType
	if accountType == "" {
		accountType = models.AccountClient
	}
	switch accountType {
	case models.AccountClient, models.AccountDriver:
	case models.AccountAdmin:
		return nil, apperr.New(apperr.CodePermissionDenied, "admin accounts cannot be self-registered")
	default:
		return nil, apperr.New(apperr.CodeInvalidArgument, "unknown account type %q", accountType)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "failed to hash password")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	now := s.now().UTC()
	u := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Password:    hashed,
		AccountType: accountType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(*u)
}

// SignIn answers unknown emails and wrong passwords alike.
func (s *ProfileService) SignIn(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid email or password")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.New(apperr.CodeUnauthenticated, "invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(req.Password, u.Password) {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid email or password")
	}
	return s.issue(*u)
}

func (s *ProfileService) issue(u models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateJWT(u)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "failed to generate token")
	}
	return &AuthResult{Token: token, User: u}, nil
}

// CurrentUser returns the profile of the signed-in user.
func (s *ProfileService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.New(apperr.CodeUnauthenticated, "the account no longer exists")
	}
	return u, err
}

// Caller loads the full identity behind a verified token.
func (s *ProfileService) Caller(ctx context.Context, userID string) (models.Caller, error) {
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return models.Caller{}, err
	}
	return models.CallerFromUser(*u), nil
}

// UpdateProfile changes display name and photo. An accountType equal to the
// current one is tolerated so apps can send the whole profile back.
func (s *ProfileService) UpdateProfile(ctx context.Context, caller models.Caller, req UpdateProfileRequest) (*models.User, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if req.AccountType != nil && *req.AccountType != caller.AccountType {
		return nil, apperr.New(apperr.CodePermissionDenied, "the account type can only be changed by an admin")
	}

	fields := map[string]any{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, apperr.New(apperr.CodeInvalidArgument, "displayName cannot be empty")
		}
		fields["displayName"] = name
	}
	if req.PhotoURL != nil {
		if *req.PhotoURL != "" && !models.IsRemotePhoto(*req.PhotoURL) {
			return nil, apperr.New(apperr.CodeInvalidArgument, "photoURL must be an http(s) URL")
		}
		fields["photoURL"] = *req.PhotoURL
	}
	if len(fields) == 0 {
		return s.users.FindByID(ctx, caller.UserID)
	}
	return s.users.UpdateFields(ctx, caller.UserID, fields)
}

func (s *ProfileService) SetAccountType(ctx context.Context, caller models.Caller, req SetAccountTypeRequest) (*models.User, error) {
	if err := requireRole(caller, models.AccountAdmin); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "userId is required")
	}
	if !req.AccountType.Valid() {
		return nil, apperr.New(apperr.CodeInvalidArgument, "unknown account type %q", req.AccountType)
	}
	u, err := s.users.UpdateFields(ctx, req.UserID, map[string]any{"accountType": req.AccountType})
	if err != nil {
		return nil, err
	}
	log.Printf("Account type of %s set to %s by %s", req.UserID, req.AccountType, caller.UserID)
	return u, nil
}

// SaveLocation stores a named address and links it to the caller's profile.
func (s *ProfileService) SaveLocation(ctx context.Context, caller models.Caller, req SaveLocationRequest) (*models.Location, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}
	if strings.TrimSpace(req.AddressData.Address) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "address is required")
	}
	if err := validateCoordinates(req.AddressData); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.AddressData.Address
	}

	loc := &models.Location{
		ID:          uuid.NewString(),
		OwnerID:     caller.UserID,
		Name:        name,
		AddressData: req.AddressData,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.locations.Insert(ctx, loc); err != nil {
		return nil, err
	}
	if _, err := s.users.AddLocationID(ctx, caller.UserID, loc.ID); err != nil {
		return nil, err
	}
	return loc, nil
}

// GetLocations looks ids up concurrently. Lookups that fail, miss, or hit
// another user's location are logged and left out; the rest keep the order
// of ids.
func (s *ProfileService) GetLocations(ctx context.Context, caller models.Caller, ids []string) ([]models.Location, error) {
	if caller.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "authentication required")
	}

	found := make([]*models.Location, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(locationConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			loc, err := s.locations.FindByID(gctx, id)
			if err != nil {
				log.Printf("Dropping location %s for %s: %v", id, caller.UserID, err)
				return nil
			}
			if loc.OwnerID != caller.UserID && caller.AccountType != models.AccountAdmin {
				log.Printf("Dropping location %s for %s: owned by %s", id, caller.UserID, loc.OwnerID)
				return nil
			}
			found[i] = loc
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, err, "location lookup was cancelled")
	}

	out := make([]models.Location, 0, len(ids))
	for _, loc := range found {
		if loc != nil {
			out = append(out, *loc)
		}
	}
	return out, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", apperr.New(apperr.CodeInvalidArgument, "%q is not a valid email address", raw)
	}
	return strings.ToLower(addr.Address), nil
}

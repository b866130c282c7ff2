package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileService(us ...models.User) (*ProfileService, *memUsers, *memLocations) {
	users := newMemUsers(us...)
	locations := newMemLocations()
	svc := NewProfileService(users, locations, stubTokens{})
	svc.now = func() time.Time { return fixedNow }
	return svc, users, locations
}

func TestRegisterAndSignIn(t *testing.T) {
	svc, users, _ := newProfileService()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, "ana", res.User.DisplayName)
	assert.Equal(t, models.AccountClient, res.User.AccountType)
	assert.Equal(t, "token-"+res.User.ID, res.Token)
	stored, _ := users.FindByID(ctx, res.User.ID)
	assert.NotEqual(t, "secret1", stored.Password)

	_, err = svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "secret2"})
	assert.Equal(t, apperr.CodeFailedPrecondition, apperr.CodeOf(err))

	signed, err := svc.SignIn(ctx, LoginRequest{Email: "ANA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, signed.User.ID)

	_, err = svc.SignIn(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-one"})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	_, err = svc.SignIn(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newProfileService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "123"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "secret1", AccountType: models.AccountAdmin})
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))
	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "secret1", AccountType: "boss"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	res, err := svc.Register(ctx, RegisterRequest{Email: "d@example.com", Password: "secret1", DisplayName: "Dre", AccountType: models.AccountDriver})
	require.NoError(t, err)
	assert.Equal(t, models.AccountDriver, res.User.AccountType)
	assert.Equal(t, "Dre", res.User.DisplayName)
}

func TestCallerOfDeletedAccount(t *testing.T) {
	svc, _, _ := newProfileService(models.User{ID: "u1", DisplayName: "Ana", AccountType: models.AccountClient})

	c, err := svc.Caller(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.DisplayName)

	_, err = svc.Caller(context.Background(), "gone")
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newProfileService(models.User{ID: "u1", DisplayName: "Ana", AccountType: models.AccountClient})
	ctx := context.Background()

	u, err := svc.UpdateProfile(ctx, client, UpdateProfileRequest{DisplayName: ptr(" Ana B "), AccountType: ptr(models.AccountClient)})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", u.DisplayName)

	_, err = svc.UpdateProfile(ctx, client, UpdateProfileRequest{AccountType: ptr(models.AccountDriver)})
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))

	_, err = svc.UpdateProfile(ctx, client, UpdateProfileRequest{DisplayName: ptr("  ")})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = svc.UpdateProfile(ctx, client, UpdateProfileRequest{PhotoURL: ptr("file:///tmp/me.jpg")})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	u, err = svc.UpdateProfile(ctx, client, UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.AccountClient, u.AccountType)
}

func TestSetAccountType(t *testing.T) {
	svc, _, _ := newProfileService(models.User{ID: "u1", AccountType: models.AccountClient})
	ctx := context.Background()

	_, err := svc.SetAccountType(ctx, client, SetAccountTypeRequest{UserID: "u1", AccountType: models.AccountDriver})
	assert.Equal(t, apperr.CodePermissionDenied, apperr.CodeOf(err))
	_, err = svc.SetAccountType(ctx, admin, SetAccountTypeRequest{UserID: "u1", AccountType: "boss"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = svc.SetAccountType(ctx, admin, SetAccountTypeRequest{UserID: "ghost", AccountType: models.AccountDriver})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	u, err := svc.SetAccountType(ctx, admin, SetAccountTypeRequest{UserID: "u1", AccountType: models.AccountDriver})
	require.NoError(t, err)
	assert.Equal(t, models.AccountDriver, u.AccountType)
}

func TestSaveLocation(t *testing.T) {
	svc, users, _ := newProfileService(models.User{ID: "u1", AccountType: models.AccountClient})
	ctx := context.Background()

	_, err := svc.SaveLocation(ctx, client, SaveLocationRequest{Name: "Home"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	loc, err := svc.SaveLocation(ctx, client, SaveLocationRequest{AddressData: at(40.7, -74.0)})
	require.NoError(t, err)
	assert.Equal(t, "x", loc.Name, "defaults to the address")
	assert.Equal(t, "u1", loc.OwnerID)

	u, _ := users.FindByID(ctx, "u1")
	assert.Equal(t, []string{loc.ID}, u.LocationIDs)
}

func TestGetLocationsDropsFailuresAndKeepsOrder(t *testing.T) {
	svc, _, locations := newProfileService()
	for _, l := range []models.Location{
		{ID: "l1", OwnerID: "u1", Name: "Home"},
		{ID: "l2", OwnerID: "u1", Name: "Shop"},
		{ID: "l3", OwnerID: "u2", Name: "Not mine"},
		{ID: "l4", OwnerID: "u1", Name: "Yard"},
	} {
		require.NoError(t, locations.Insert(context.Background(), &l))
	}
	// The first lookup finishes last; order must still follow the input.
	locations.delay["l1"] = 30 * time.Millisecond
	locations.fail["l4"] = errors.New("connection reset")

	got, err := svc.GetLocations(context.Background(), client, []string{"l1", "missing", "l2", "l3", "l4"})

	require.NoError(t, err)
	var names []string
	for _, l := range got {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Home", "Shop"}, names)

	all, err := svc.GetLocations(context.Background(), admin, []string{"l3", "l2"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "l3", all[0].ID)

	empty, err := svc.GetLocations(context.Background(), client, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

package services

import (
	"context"
	"testing"
	"time"

	"quickbite-api/apperr"
	"quickbite-api/auth"
	"quickbite-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *auth.Issuer) {
	t.Helper()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewAuthService(newTestStore(t), issuer, "let-me-in", discardLogger()), issuer
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	user, err := svc.Register(ctx, RegisterInput{Name: "Asha Rao", Email: " Asha@Example.com ", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.True(t, user.IsActive)

	_, err = svc.Register(ctx, RegisterInput{Name: "Asha Again", Email: "asha@example.com", Password: "Secret123"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.Register(ctx, RegisterInput{Name: "A1", Email: "nope", Password: "weak", Role: "driver"})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	fields := apperr.FieldsOf(err)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	assert.ElementsMatch(t, []string{"name", "email", "password", "role"}, names)
}

func TestRegisterAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	in := RegisterInput{Name: "Root Admin", Email: "root@example.com", Password: "Secret123", Role: "admin"}

	_, err := svc.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "key is required")

	in.AdminSecretKey = "guess"
	_, err = svc.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindPermission))
	assert.Equal(t, "Invalid admin secret key", apperr.MessageOf(err))

	in.AdminSecretKey = "let-me-in"
	user, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Contains(t, user.Permissions, models.PermManageOrders)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, issuer := newAuthService(t)
	registered, err := svc.Register(ctx, RegisterInput{Name: "Asha Rao", Email: "asha@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "asha@example.com", "Wrong123")
	assert.Equal(t, "Invalid email or password", apperr.MessageOf(err))

	_, _, err = svc.Login(ctx, "ghost@example.com", "Secret123")
	assert.Equal(t, "Invalid email or password", apperr.MessageOf(err))

	_, _, err = svc.Login(ctx, "not-an-email", "Secret123")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	user, token, err := svc.Login(ctx, "ASHA@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)

	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, me.LastLogin)
}

func TestLoginInactiveAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	user, err := svc.Register(ctx, RegisterInput{Name: "Asha Rao", Email: "asha@example.com", Password: "Secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.store.Users().Update(ctx, user.ID, map[string]interface{}{"is_active": false}))

	_, _, err = svc.Login(ctx, "asha@example.com", "Secret123")
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = svc.Me(ctx, user.ID)
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = svc.Me(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	created, err := svc.EnsureAdmin(ctx, "Site Admin", "admin@example.com", "Secret123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "Site Admin", "ADMIN@example.com", "Other123")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.EnsureAdmin(ctx, "Site Admin", "", "")
	assert.Error(t, err)

	_, err = svc.EnsureAdmin(ctx, "Site Admin", "root@example.com", "weak")
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	_, _, err = svc.Login(ctx, "admin@example.com", "Secret123")
	assert.NoError(t, err)
}

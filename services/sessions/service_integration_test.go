//go:build integration

package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"ryotgo/internal/database"
	"ryotgo/internal/testinfra"
	"ryotgo/models"
	"ryotgo/services/sessions"
)

func setupTestService(t *testing.T) (*sessions.Service, *database.UserRepository) {
	t.Helper()
	db := testinfra.OpenPostgres(t)
	users := database.NewUserRepository(db)
	revoked := database.NewRevokedTokenRepository(db)
	return sessions.NewService([]byte("integration-test-secret"), revoked, users, "ryotgo"), users
}

func TestService_RevokeDenylistsToken(t *testing.T) {
	svc, users := setupTestService(t)
	ctx := context.Background()

	u := &models.User{Name: "revoke-me", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, users.Create(ctx, u))

	token, err := svc.Issue(u, sessions.DefaultAccessTokenTTL)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Validate(ctx, token)
	require.Error(t, err)
}

func TestService_RevokeAllInvalidatesPriorTokens(t *testing.T) {
	svc, users := setupTestService(t)
	ctx := context.Background()

	u := &models.User{Name: "revoke-all", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, users.Create(ctx, u))

	token, err := svc.Issue(u, sessions.DefaultAccessTokenTTL)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, u.ID))

	_, err = svc.Validate(ctx, token)
	require.Error(t, err)

	// A token issued after RevokeAll is unaffected.
	freshToken, err := svc.Issue(u, sessions.DefaultAccessTokenTTL)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, freshToken)
	require.NoError(t, err)
}

func TestService_TOTPEnrollConfirmAndVerify(t *testing.T) {
	svc, users := setupTestService(t)
	ctx := context.Background()

	u := &models.User{Name: "totp-flow", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, users.Create(ctx, u))

	provisioningURI, backupCodes, err := svc.EnrollTOTP(ctx, u)
	require.NoError(t, err)
	require.Len(t, backupCodes, 10)

	enrolled, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, enrolled.TwoFactor)
	require.False(t, enrolled.TwoFactor.IsEnabled)

	key, err := otp.NewKeyFromURL(provisioningURI)
	require.NoError(t, err)
	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmTOTP(ctx, enrolled, code))

	confirmed, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, confirmed.TwoFactor.IsEnabled)

	ok, err := svc.VerifyTOTP(ctx, confirmed, backupCodes[0])
	require.NoError(t, err)
	require.True(t, ok)

	// The consumed backup code cannot be reused.
	afterConsume, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	ok, err = svc.VerifyTOTP(ctx, afterConsume, backupCodes[0])
	require.Error(t, err)
	require.False(t, ok)
}

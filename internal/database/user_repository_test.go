//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ryotgo/internal/apperror"
	"ryotgo/internal/database"
	"ryotgo/internal/testinfra"
	"ryotgo/models"
)

func setupTestUserRepo(t *testing.T) *database.UserRepository {
	t.Helper()
	db := testinfra.OpenPostgres(t)
	return database.NewUserRepository(db)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := setupTestUserRepo(t)
	ctx := context.Background()

	u := &models.User{
		Name:        "vansh",
		Lot:         models.UserLotNormal,
		Preferences: models.DefaultUserPreferences(),
	}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Name, got.Name)
	require.Equal(t, models.UserLotNormal, got.Lot)
	require.False(t, got.IsDisabled)
	require.Nil(t, got.TwoFactor)

	byName, err := repo.ByName(ctx, "vansh")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)
}

func TestUserRepository_Get_NotFound(t *testing.T) {
	repo := setupTestUserRepo(t)

	_, err := repo.Get(context.Background(), "usr_doesnotexist")
	require.Error(t, err)
	require.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUserRepository_UpdatePreferences(t *testing.T) {
	repo := setupTestUserRepo(t)
	ctx := context.Background()

	u := &models.User{Name: "admin", Lot: models.UserLotAdmin, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, repo.Create(ctx, u))

	prefs := u.Preferences
	prefs.Fitness.WeightUnit = "lbs"
	require.NoError(t, repo.UpdatePreferences(ctx, u.ID, prefs))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "lbs", got.Preferences.Fitness.WeightUnit)
}

func TestUserRepository_UpdateTwoFactor(t *testing.T) {
	repo := setupTestUserRepo(t)
	ctx := context.Background()

	u := &models.User{Name: "totp-user", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, repo.Create(ctx, u))

	tf := &models.TwoFactorInformation{TOTPSecretEncrypted: []byte("encrypted"), IsEnabled: true}
	require.NoError(t, repo.UpdateTwoFactor(ctx, u.ID, tf))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TwoFactor)
	require.True(t, got.TwoFactor.IsEnabled)
}

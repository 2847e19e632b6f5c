package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmcfarlane/google-login-server/oauth"
	"github.com/tmcfarlane/google-login-server/users"
	fakeuserrepo "github.com/tmcfarlane/google-login-server/users/repofake"
)

func TestFromProfile(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	profile := &oauth.Profile{
		Email:         "test@example.com",
		VerifiedEmail: true,
		Name:          "Test User",
		Picture:       "https://example.com/photo.jpg",
	}

	user := users.FromProfile(profile, now)
	require.Equal(t, "test@example.com", user.Email)
	require.Equal(t, "Test User", user.Name)
	require.Equal(t, "https://example.com/photo.jpg", user.Image)
	require.NotNil(t, user.EmailVerified)
	require.Equal(t, now, *user.EmailVerified)
	require.Equal(t, now, user.CreatedAt)
	require.Equal(t, now, user.UpdatedAt)
}

func TestFromProfileUnverifiedEmail(t *testing.T) {
	now := time.Now()
	user := users.FromProfile(&oauth.Profile{Email: "x@y.com"}, now)
	require.Nil(t, user.EmailVerified)
}

func TestFakeRepoUpsertPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	first, err := repo.Upsert(ctx, &users.User{Email: "test@example.com", Name: "First"})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.Upsert(ctx, &users.User{Email: "test@example.com", Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, "Renamed", second.Name)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Renamed", found.Name)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

package service

import (
	"context"
	"strings"
	"testing"

	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/repository"
	"srefhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubUserService(users *userRepoStub, follows *followRepoStub, pub notifications.Publisher) *UserService {
	return NewUserService(users, follows, noopStyleRepo(), nil, pub)
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	svc := newStubUserService(noopUserRepo(), noopFollowRepo(), nil)
	ctx := context.Background()
	long := strings.Repeat("x", 501)
	short := "a"
	badAvatar := "ftp://example.com/a.png"

	t.Run("other user is forbidden", func(t *testing.T) {
		t.Parallel()
		name := "Valid Name"
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 1, UserID: 2, Name: &name})
		assertAppError(t, err, models.CodeForbidden)
	})
	t.Run("name too short", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 1, UserID: 1, Name: &short})
		assertValidationError(t, err)
	})
	t.Run("bio too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 1, UserID: 1, Bio: &long})
		assertValidationError(t, err)
	})
	t.Run("avatar must be http", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 1, UserID: 1, Avatar: &badAvatar})
		assertValidationError(t, err)
	})
}

func TestUserService_UpdateProfile_PartialUpdate(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	var fields map[string]interface{}
	repo.updateProfileFn = func(_ context.Context, _ uint, f map[string]interface{}) error {
		fields = f
		return nil
	}
	svc := newStubUserService(repo, noopFollowRepo(), nil)

	bio := "  painter of light  "
	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{ActorID: 3, UserID: 3, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"bio": "painter of light"}, fields)

	empty := ""
	_, err = svc.UpdateProfile(context.Background(), UpdateProfileInput{ActorID: 3, UserID: 3, Avatar: &empty})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"avatar": ""}, fields)
}

func TestUserService_GetProfile_HidesEmailFromOthers(t *testing.T) {
	t.Parallel()

	svc := newStubUserService(noopUserRepo(), noopFollowRepo(), nil)

	self, err := svc.GetProfile(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", self.Email)

	other, err := svc.GetProfile(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.Empty(t, other.Email)
}

func TestUserService_ToggleFollow(t *testing.T) {
	t.Parallel()

	t.Run("self follow is rejected", func(t *testing.T) {
		t.Parallel()
		svc := newStubUserService(noopUserRepo(), noopFollowRepo(), nil)
		_, err := svc.ToggleFollow(context.Background(), 4, 4)
		assertValidationError(t, err)
		assert.Contains(t, err.Error(), "You cannot follow yourself")
	})

	t.Run("missing target is not found", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.existsFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
		svc := newStubUserService(users, noopFollowRepo(), nil)
		_, err := svc.ToggleFollow(context.Background(), 4, 99)
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("new follow notifies target", func(t *testing.T) {
		t.Parallel()
		pub := newPublisherStub()
		svc := newStubUserService(noopUserRepo(), noopFollowRepo(), pub)
		res, err := svc.ToggleFollow(context.Background(), 4, 8)
		require.NoError(t, err)
		assert.Equal(t, &FollowResult{IsFollowing: true, FollowersCount: 1}, res)

		events := pub.sent(8)
		require.Len(t, events, 1)
		assert.Equal(t, notifications.EventNewFollower, events[0].Type)
		assert.Equal(t, uint(4), events[0].ActorID)
	})

	t.Run("unfollow is silent", func(t *testing.T) {
		t.Parallel()
		pub := newPublisherStub()
		follows := noopFollowRepo()
		follows.toggleFn = func(_ context.Context, _, _ uint) (bool, int64, error) { return false, 0, nil }
		svc := newStubUserService(noopUserRepo(), follows, pub)
		res, err := svc.ToggleFollow(context.Background(), 4, 8)
		require.NoError(t, err)
		assert.False(t, res.IsFollowing)
		assert.Empty(t, pub.sent(8))
	})
}

func TestUserService_SetTier(t *testing.T) {
	t.Parallel()

	svc := newStubUserService(noopUserRepo(), noopFollowRepo(), nil)
	_, err := svc.SetTier(context.Background(), 1, "gold")
	assertValidationError(t, err)

	_, err = svc.SetTier(context.Background(), 1, models.TierPremium)
	assert.NoError(t, err)
}

func TestUserService_Lists(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")
	testutil.CreateStyle(t, db, alice.ID, "Alice Style")

	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewFollowRepository(db),
		repository.NewStyleRepository(db),
		repository.NewCollectionRepository(db),
		nil,
	)
	ctx := context.Background()

	_, err := svc.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	followers, err := svc.ListFollowers(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, bob.ID, followers[0].ID)
	assert.Empty(t, followers[0].Email)

	following, err := svc.ListFollowing(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, alice.ID, following[0].ID)

	styles, total, err := svc.ListStyles(ctx, alice.ID, bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, styles, 1)

	profile, err := svc.GetProfile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(1), profile.StylesCount)
	assert.Equal(t, int64(1), profile.FollowersCount)

	_, err = svc.ListFollowers(ctx, 9999, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
}

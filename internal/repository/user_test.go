package repository

import (
	"context"
	"regexp"
	"testing"

	"srefhub/internal/models"
	"srefhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedName  string
		expectedError bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "email"}).
					AddRow(1, "Ada", "ada@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedName: "Ada",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, 404, models.StatusFor(err))
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedName, user.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "Ada", Email: "ada@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Name: "Ada Two", Email: "ada@example.com", Password: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, models.TierFree, found.Tier)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_ProfileAndFollows(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "Ada")
	bob := testutil.CreateUser(t, db, "Bob")
	cy := testutil.CreateUser(t, db, "Cy")
	testutil.CreateStyle(t, db, ada.ID, "One")
	testutil.CreateStyle(t, db, ada.ID, "Two")

	following, followers, err := follows.Toggle(ctx, bob.ID, ada.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.EqualValues(t, 1, followers)

	_, followers, err = follows.Toggle(ctx, cy.ID, ada.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, followers)

	profile, err := users.GetProfile(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, profile.StylesCount)
	assert.EqualValues(t, 2, profile.FollowersCount)
	assert.True(t, profile.IsFollowing)

	profile, err = users.GetProfile(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.FollowingCount)
	assert.False(t, profile.IsFollowing)

	list, err := users.ListFollowers(ctx, ada.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = users.ListFollowing(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ada.ID, list[0].ID)

	following, followers, err = follows.Toggle(ctx, bob.ID, ada.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.EqualValues(t, 1, followers)

	profile, err = users.GetProfile(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.FollowersCount)
	assert.False(t, profile.IsFollowing)

	profile, err = users.GetProfile(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, profile.FollowingCount, "follower side drops in lockstep")

	profile, err = users.GetProfile(ctx, cy.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.FollowingCount)

	is, err := follows.IsFollowing(ctx, bob.ID, ada.ID)
	require.NoError(t, err)
	assert.False(t, is)

	_, err = users.GetProfile(ctx, 4242, 0)
	assert.Equal(t, 404, models.StatusFor(err))
}

func TestUserRepository_UpdateProfileAndTier(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	ada := testutil.CreateUser(t, db, "Ada")

	require.NoError(t, repo.UpdateProfile(ctx, ada.ID, map[string]interface{}{"bio": "hello"}))
	require.NoError(t, repo.SetTier(ctx, ada.ID, models.TierPremium))

	got, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, models.TierPremium, got.Tier)

	assert.Equal(t, 404, models.StatusFor(repo.SetTier(ctx, 999, models.TierFree)))

	ok, err := repo.Exists(ctx, ada.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

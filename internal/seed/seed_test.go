package seed

import (
	"context"
	"strings"
	"testing"

	"srefhub/internal/models"
	"srefhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_BuildStyleIsValid(t *testing.T) {
	f := NewFactory(42, 30, true)
	owner := &models.User{ID: 7}

	for i := 0; i < 20; i++ {
		style, err := f.BuildStyle(owner)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, style.UserID)
		assert.NotEmpty(t, style.Slug)
		assert.NotEmpty(t, style.Images)
		assert.LessOrEqual(t, len(style.Images), 4)
		assert.Less(t, style.MainImageIndex, len(style.Images))
		assert.NotEmpty(t, style.Tags)
		require.NoError(t, style.Params.Validate())
		assert.Equal(t, style.Prompt, style.Params.Raw)
		assert.Contains(t, style.Prompt, "--sref "+style.Sref)
	}
}

func TestFactory_BuildUser(t *testing.T) {
	f := NewFactory(1, 0, true)
	a, err := f.BuildUser(1)
	require.NoError(t, err)
	b, err := f.BuildUser(2)
	require.NoError(t, err)

	assert.NotEqual(t, a.Email, b.Email)
	assert.Equal(t, strings.ToLower(a.Email), a.Email)
	assert.Equal(t, Password, a.Password, "skipBcrypt stores the plaintext marker")
}

func TestSeeder_SeedIsConsistent(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeder := NewSeeder(db, Options{NumUsers: 6, NumStyles: 12, SkipBcrypt: true, RandSeed: 99})

	summary, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 12, summary.Styles)

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	var likeTotal int64
	require.NoError(t, db.Model(&models.Style{}).Select("COALESCE(SUM(likes_count), 0)").Scan(&likeTotal).Error)
	assert.Equal(t, likes, likeTotal)

	var follows int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	var followerTotal int64
	require.NoError(t, db.Model(&models.User{}).Select("COALESCE(SUM(followers_count), 0)").Scan(&followerTotal).Error)
	assert.Equal(t, follows, followerTotal)

	var demo models.User
	require.NoError(t, db.Where("email = ?", "demo@example.com").First(&demo).Error)
	assert.Equal(t, models.TierPremium, demo.Tier)
}

func TestSeeder_CleanRemovesPreviousRun(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := NewSeeder(db, Options{NumUsers: 3, NumStyles: 4, SkipBcrypt: true, RandSeed: 1}).Seed(ctx)
	require.NoError(t, err)

	_, err = NewSeeder(db, Options{NumUsers: 2, NumStyles: 1, SkipBcrypt: true, ShouldClean: true, RandSeed: 2}).Seed(ctx)
	require.NoError(t, err)

	var users, styles int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Style{}).Count(&styles).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(1), styles)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// styleRepoStub is a stub for repository.StyleRepository.
type styleRepoStub struct {
	createFn         func(context.Context, *models.Style) error
	getByIDFn        func(context.Context, uint, uint) (*models.Style, error)
	getBySlugFn      func(context.Context, string, uint) (*models.Style, error)
	existsFn         func(context.Context, uint) (bool, error)
	listFn           func(context.Context, repository.StyleFilter, uint) ([]*models.Style, int64, error)
	topFn            func(context.Context, repository.StyleSort, int) ([]*models.Style, error)
	incrementViewsFn func(context.Context, uint) error
	toggleLikeFn     func(context.Context, uint, uint) (bool, int64, error)
}

func (s *styleRepoStub) Create(ctx context.Context, style *models.Style) error {
	return s.createFn(ctx, style)
}
func (s *styleRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Style, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *styleRepoStub) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Style, error) {
	return s.getBySlugFn(ctx, slug, viewerID)
}
func (s *styleRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *styleRepoStub) List(ctx context.Context, filter repository.StyleFilter, viewerID uint) ([]*models.Style, int64, error) {
	return s.listFn(ctx, filter, viewerID)
}
func (s *styleRepoStub) Top(ctx context.Context, sort repository.StyleSort, limit int) ([]*models.Style, error) {
	return s.topFn(ctx, sort, limit)
}
func (s *styleRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *styleRepoStub) ToggleLike(ctx context.Context, userID, styleID uint) (bool, int64, error) {
	return s.toggleLikeFn(ctx, userID, styleID)
}

func noopStyleRepo() *styleRepoStub {
	return &styleRepoStub{
		createFn: func(_ context.Context, s *models.Style) error { s.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Style, error) {
			return &models.Style{ID: id, UserID: 100}, nil
		},
		getBySlugFn: func(_ context.Context, slug string, _ uint) (*models.Style, error) {
			return &models.Style{ID: 1, Slug: slug, UserID: 100}, nil
		},
		existsFn: func(_ context.Context, _ uint) (bool, error) { return true, nil },
		listFn: func(_ context.Context, _ repository.StyleFilter, _ uint) ([]*models.Style, int64, error) {
			return nil, 0, nil
		},
		topFn:            func(_ context.Context, _ repository.StyleSort, _ int) ([]*models.Style, error) { return nil, nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn:     func(_ context.Context, _, _ uint) (bool, int64, error) { return true, 1, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getProfileFn    func(context.Context, uint, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, uint) (bool, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, uint, map[string]interface{}) error
	setTierFn       func(context.Context, uint, models.SubscriptionTier) error
	listFollowersFn func(context.Context, uint, int, int) ([]models.User, error)
	listFollowingFn func(context.Context, uint, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	return s.getProfileFn(ctx, id, viewerID)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateProfileFn(ctx, id, fields)
}
func (s *userRepoStub) SetTier(ctx context.Context, id uint, tier models.SubscriptionTier) error {
	return s.setTierFn(ctx, id, tier)
}
func (s *userRepoStub) ListFollowers(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.listFollowersFn(ctx, id, limit, offset)
}
func (s *userRepoStub) ListFollowing(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.listFollowingFn(ctx, id, limit, offset)
}

func noopUserRepo() *userRepoStub {
	user := func(id uint) *models.User {
		return &models.User{ID: id, Name: "user", Email: "user@example.com"}
	}
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return user(id), nil },
		getProfileFn:    func(_ context.Context, id, _ uint) (*models.User, error) { return user(id), nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		updateProfileFn: func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		setTierFn:       func(_ context.Context, _ uint, _ models.SubscriptionTier) error { return nil },
		listFollowersFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		listFollowingFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	toggleFn      func(context.Context, uint, uint) (bool, int64, error)
	isFollowingFn func(context.Context, uint, uint) (bool, error)
}

func (s *followRepoStub) Toggle(ctx context.Context, followerID, followingID uint) (bool, int64, error) {
	return s.toggleFn(ctx, followerID, followingID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followingID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		toggleFn:      func(_ context.Context, _, _ uint) (bool, int64, error) { return true, 1, nil },
		isFollowingFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByStyleFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByStyle(ctx context.Context, styleID uint) ([]*models.Comment, error) {
	return s.listByStyleFn(ctx, styleID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		listByStyleFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// publisherStub records published events.
type publisherStub struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
	err    error
}

func newPublisherStub() *publisherStub {
	return &publisherStub{events: make(map[uint][]notifications.Event)}
}

func (p *publisherStub) Publish(_ context.Context, recipientID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events[recipientID] = append(p.events[recipientID], event)
	return nil
}

func (p *publisherStub) sent(recipientID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[recipientID]
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized)
}

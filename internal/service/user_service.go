package service

import (
	"context"

	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/repository"
	"srefhub/internal/validation"
)

type UserService struct {
	userRepo       repository.UserRepository
	followRepo     repository.FollowRepository
	styleRepo      repository.StyleRepository
	collectionRepo repository.CollectionRepository
	notifier       notifications.Publisher
}

// UpdateProfileInput carries optional profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	ActorID uint
	UserID  uint
	Name    *string
	Bio     *string
	Avatar  *string
}

type FollowResult struct {
	IsFollowing    bool  `json:"isFollowing"`
	FollowersCount int64 `json:"followersCount"`
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	styleRepo repository.StyleRepository,
	collectionRepo repository.CollectionRepository,
	notifier notifications.Publisher,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		followRepo:     followRepo,
		styleRepo:      styleRepo,
		collectionRepo: collectionRepo,
		notifier:       notifier,
	}
}

// GetProfile returns the public profile. Email is kept only for the owner.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	user, err := s.userRepo.GetProfile(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if viewerID != id {
		return user.Public(), nil
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.ActorID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own profile")
	}

	fields := make(map[string]interface{}, 3)
	if in.Name != nil {
		if err := validation.ValidateName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["name"] = trimmed(*in.Name)
	}
	if in.Bio != nil {
		bio := trimmed(*in.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["bio"] = bio
	}
	if in.Avatar != nil {
		avatar := trimmed(*in.Avatar)
		if err := validation.ValidateAvatarURL(avatar); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["avatar"] = avatar
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, in.UserID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetProfile(ctx, in.UserID, in.ActorID)
}

// SetAvatar points the user's avatar at an uploaded image.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, url string) (*models.User, error) {
	return s.UpdateProfile(ctx, UpdateProfileInput{ActorID: userID, UserID: userID, Avatar: &url})
}

func (s *UserService) SetTier(ctx context.Context, userID uint, tier models.SubscriptionTier) (*models.User, error) {
	if !tier.Valid() {
		return nil, models.NewValidationError("tier must be free or premium")
	}
	if err := s.userRepo.SetTier(ctx, userID, tier); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ToggleFollow follows or unfollows targetID and notifies on a new follow.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, targetID uint) (*FollowResult, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", targetID)
	}

	following, count, err := s.followRepo.Toggle(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		notify(ctx, s.notifier, targetID, notifications.Event{Type: notifications.EventNewFollower, ActorID: followerID})
	}
	return &FollowResult{IsFollowing: following, FollowersCount: count}, nil
}

func (s *UserService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListFollowers(ctx, userID, limit, offset)
	return publicUsers(users), err
}

func (s *UserService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListFollowing(ctx, userID, limit, offset)
	return publicUsers(users), err
}

// ListStyles returns the user's styles, newest first.
func (s *UserService) ListStyles(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Style, int64, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.styleRepo.List(ctx, repository.StyleFilter{
		UserID: userID,
		Sort:   repository.SortNewest,
		Limit:  limit,
		Offset: offset,
	}, viewerID)
}

func (s *UserService) ListCollections(ctx context.Context, userID uint) ([]*models.Collection, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.collectionRepo.ListByUser(ctx, userID)
}

func (s *UserService) ensureUser(ctx context.Context, userID uint) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func publicUsers(users []models.User) []models.User {
	for i := range users {
		users[i].Email = ""
	}
	return users
}

package service

import (
	"context"
	"time"

	"srefhub/internal/auth"
	"srefhub/internal/models"
	"srefhub/internal/repository"
	"srefhub/internal/validation"
)

// AuthService registers accounts and issues session tokens.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is returned by Register and Login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, revocations auth.RevocationStore) *AuthService {
	return &AuthService{users: users, tokens: tokens, revocations: revocations}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A user with this email already exists")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Name:     trimmed(in.Name),
		Email:    email,
		Password: hashed,
		Tier:     models.TierFree,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, models.NewConflictError("A user with this email already exists")
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		auth.BurnPasswordCheck(in.Password)
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return s.issue(user)
}

// Me returns the caller's own account, email included.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetProfile(ctx, userID, 0)
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Not authenticated")
	}
	if s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

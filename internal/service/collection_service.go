package service

import (
	"context"
	"errors"

	"srefhub/internal/models"
	"srefhub/internal/repository"
	"srefhub/internal/validation"
)

type CollectionService struct {
	collectionRepo repository.CollectionRepository
	styleRepo      repository.StyleRepository
}

type CreateCollectionInput struct {
	UserID      uint
	Name        string
	Description string
}

// UpdateCollectionInput leaves nil fields unchanged.
type UpdateCollectionInput struct {
	UserID       uint
	CollectionID uint
	Name         *string
	Description  *string
}

type CollectionStyleInput struct {
	UserID       uint
	CollectionID uint
	StyleID      uint
}

func NewCollectionService(collectionRepo repository.CollectionRepository, styleRepo repository.StyleRepository) *CollectionService {
	return &CollectionService{collectionRepo: collectionRepo, styleRepo: styleRepo}
}

func (s *CollectionService) ListMine(ctx context.Context, userID uint) ([]*models.Collection, error) {
	collections, err := s.collectionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []*models.Collection{}
	}
	return collections, nil
}

// Get returns a collection with its member styles, newest membership first.
func (s *CollectionService) Get(ctx context.Context, id, viewerID uint) (*models.Collection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	styles, err := s.collectionRepo.Styles(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	collection.Styles = make([]models.Style, 0, len(styles))
	for _, st := range styles {
		collection.Styles = append(collection.Styles, *st)
	}
	return collection, nil
}

func (s *CollectionService) Create(ctx context.Context, in CreateCollectionInput) (*models.Collection, error) {
	name, err := validation.NormalizeCollectionName(in.Name)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	description := trimmed(in.Description)
	if err := validation.ValidateDescription(description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	collection := &models.Collection{Name: name, Description: description, UserID: in.UserID}
	if err := s.collectionRepo.Create(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) Update(ctx context.Context, in UpdateCollectionInput) (*models.Collection, error) {
	collection, err := s.owned(ctx, in.CollectionID, in.UserID, "Not authorized to update this collection")
	if err != nil {
		return nil, err
	}

	name, description := collection.Name, collection.Description
	if in.Name != nil {
		if name, err = validation.NormalizeCollectionName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.Description != nil {
		description = trimmed(*in.Description)
		if err := validation.ValidateDescription(description); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	if err := s.collectionRepo.Update(ctx, in.CollectionID, name, description); err != nil {
		return nil, err
	}
	return s.collectionRepo.GetByID(ctx, in.CollectionID)
}

func (s *CollectionService) Delete(ctx context.Context, collectionID, userID uint) error {
	if _, err := s.owned(ctx, collectionID, userID, "Not authorized to delete this collection"); err != nil {
		return err
	}
	return s.collectionRepo.Delete(ctx, collectionID)
}

// AddStyle is an explicit add. An existing membership is a conflict.
func (s *CollectionService) AddStyle(ctx context.Context, in CollectionStyleInput) error {
	if err := s.checkMembershipChange(ctx, in); err != nil {
		return err
	}
	if err := s.collectionRepo.AddStyle(ctx, in.CollectionID, in.StyleID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.NewConflictError("Style already in collection")
		}
		return err
	}
	return nil
}

// RemoveStyle is idempotent.
func (s *CollectionService) RemoveStyle(ctx context.Context, in CollectionStyleInput) error {
	if _, err := s.owned(ctx, in.CollectionID, in.UserID, "Not authorized to modify this collection"); err != nil {
		return err
	}
	return s.collectionRepo.RemoveStyle(ctx, in.CollectionID, in.StyleID)
}

// ToggleStyle returns whether the style is in the collection afterwards.
func (s *CollectionService) ToggleStyle(ctx context.Context, in CollectionStyleInput) (bool, error) {
	if err := s.checkMembershipChange(ctx, in); err != nil {
		return false, err
	}
	return s.collectionRepo.ToggleStyle(ctx, in.CollectionID, in.StyleID)
}

func (s *CollectionService) checkMembershipChange(ctx context.Context, in CollectionStyleInput) error {
	if _, err := s.owned(ctx, in.CollectionID, in.UserID, "Not authorized to modify this collection"); err != nil {
		return err
	}
	exists, err := s.styleRepo.Exists(ctx, in.StyleID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Style", in.StyleID)
	}
	return nil
}

func (s *CollectionService) owned(ctx context.Context, collectionID, userID uint, denied string) (*models.Collection, error) {
	collection, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.UserID != userID {
		return nil, models.NewForbiddenError(denied)
	}
	return collection, nil
}

package repository

import (
	"context"
	"errors"

	"srefhub/internal/models"
	"srefhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionRepository defines persistence for collections and membership.
type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	Update(ctx context.Context, id uint, name, description string) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Collection, error)
	Styles(ctx context.Context, collectionID, viewerID uint) ([]*models.Style, error)
	AddStyle(ctx context.Context, collectionID, styleID uint) error
	RemoveStyle(ctx context.Context, collectionID, styleID uint) error
	ToggleStyle(ctx context.Context, collectionID, styleID uint) (bool, error)
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(collection).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID includes the member count.
func (r *collectionRepository) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := withStyleCount(readDB(r.db).WithContext(ctx)).First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Collection", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &collection, nil
}

func (r *collectionRepository) Update(ctx context.Context, id uint, name, description string) error {
	res := r.db.WithContext(ctx).Model(&models.Collection{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "description": description})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Collection", id)
	}
	return nil
}

// Delete removes the collection; memberships go with it by cascade. They
// are also deleted explicitly so SQLite without foreign keys agrees.
func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	return r.wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionStyle{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Collection{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}), id)
}

// ListByUser returns the owner's collections newest first.
func (r *collectionRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Collection, error) {
	var collections []*models.Collection
	err := withStyleCount(readDB(r.db).WithContext(ctx)).
		Where("collections.user_id = ?", userID).
		Order("collections.created_at DESC, collections.id DESC").
		Find(&collections).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return collections, nil
}

// Styles returns member styles, most recently added first.
func (r *collectionRepository) Styles(ctx context.Context, collectionID, viewerID uint) ([]*models.Style, error) {
	var styles []*models.Style
	err := applyStyleDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Joins("JOIN collection_styles ON collection_styles.style_id = styles.id").
		Where("collection_styles.collection_id = ?", collectionID).
		Order("collection_styles.created_at DESC, collection_styles.id DESC").
		Find(&styles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	attachAuthors(styles)
	return styles, nil
}

// AddStyle returns ErrDuplicate when the style is already a member.
func (r *collectionRepository) AddStyle(ctx context.Context, collectionID, styleID uint) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).
		Create(&models.CollectionStyle{CollectionID: collectionID, StyleID: styleID}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	observability.RecordToggle("collection", true)
	return nil
}

// RemoveStyle is idempotent.
func (r *collectionRepository) RemoveStyle(ctx context.Context, collectionID, styleID uint) error {
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND style_id = ?", collectionID, styleID).
		Delete(&models.CollectionStyle{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	observability.RecordToggle("collection", false)
	return nil
}

// ToggleStyle reports whether the style is a member afterwards.
func (r *collectionRepository) ToggleStyle(ctx context.Context, collectionID, styleID uint) (bool, error) {
	var member bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("collection_id = ? AND style_id = ?", collectionID, styleID).Delete(&models.CollectionStyle{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			return nil
		}
		member = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).
			Create(&models.CollectionStyle{CollectionID: collectionID, StyleID: styleID}).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	observability.RecordToggle("collection", member)
	return member, nil
}

func (r *collectionRepository) wrap(err error, id uint) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError("Collection", id)
	default:
		return models.NewInternalError(err)
	}
}

func withStyleCount(db *gorm.DB) *gorm.DB {
	return db.Select("collections.*, (SELECT COUNT(*) FROM collection_styles WHERE collection_styles.collection_id = collections.id) AS style_count")
}

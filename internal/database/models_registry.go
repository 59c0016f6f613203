package database

import "srefhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Style{},
		&models.Like{},
		&models.Comment{},
		&models.Collection{},
		&models.CollectionStyle{},
		&models.Image{},
	}
}

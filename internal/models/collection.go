package models

import "time"

// Collection is a named, user-owned set of styles.
type Collection struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	UserID      uint   `gorm:"not null;index" json:"userId"`
	User        *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	StyleCount int64   `gorm:"->;-:migration" json:"styleCount"`
	Styles     []Style `gorm:"-" json:"styles,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CollectionStyle is a membership row. The pair is unique.
type CollectionStyle struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CollectionID uint        `gorm:"not null;uniqueIndex:idx_collection_styles_pair" json:"collectionId"`
	StyleID      uint        `gorm:"not null;uniqueIndex:idx_collection_styles_pair;index" json:"styleId"`
	Collection   *Collection `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"-"`
	Style        *Style      `gorm:"foreignKey:StyleID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Image is an uploaded, normalised image owned by a user.
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_images_user_hash" json:"userId"`
	Hash        string    `gorm:"size:64;not null;uniqueIndex:idx_images_user_hash" json:"hash"`
	Kind        string    `gorm:"size:20;not null;default:style" json:"kind"`
	MasterKey   string    `gorm:"size:500;not null" json:"-"`
	WebPKey     string    `gorm:"column:webp_key;size:500" json:"-"`
	URL         string    `gorm:"size:500;not null" json:"url"`
	WebPURL     string    `gorm:"column:webp_url;size:500" json:"webpUrl"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `gorm:"size:50" json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

package models

import (
	"time"
)

// Style is a shared Midjourney style reference entry.
type Style struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Slug           string           `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title          string           `gorm:"size:100;not null" json:"title"`
	Sref           string           `gorm:"size:255;not null;index" json:"sref"`
	Images         []string         `gorm:"type:text;serializer:json;not null" json:"images"`
	MainImageIndex int              `gorm:"not null;default:0" json:"mainImageIndex"`
	Params         MidjourneyParams `gorm:"type:text;serializer:json" json:"params"`
	Prompt         string           `gorm:"type:text" json:"prompt"`
	Description    string           `gorm:"type:text" json:"description"`
	Tags           []string         `gorm:"type:text;serializer:json" json:"tags"`
	Views          int64            `gorm:"not null;default:0;index" json:"views"`
	LikesCount     int64            `gorm:"not null;default:0;index" json:"likes"`
	UserID         uint             `gorm:"not null;index" json:"userId"`
	User           *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	// Computed per request
	CommentsCount int64 `gorm:"->;-:migration" json:"commentsCount"`
	IsLiked       bool  `gorm:"->;-:migration" json:"isLiked"`
	IsCollected   bool  `gorm:"->;-:migration" json:"isCollected"`

	Author          *UserSummary `gorm:"-" json:"author,omitempty"`
	DescriptionHTML string       `gorm:"-" json:"descriptionHtml,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MainImage returns the cover image URL, or "" when the style has no images.
func (s *Style) MainImage() string {
	if s == nil || len(s.Images) == 0 {
		return ""
	}
	if s.MainImageIndex < 0 || s.MainImageIndex >= len(s.Images) {
		return s.Images[0]
	}
	return s.Images[s.MainImageIndex]
}

// Like records that a user liked a style.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_style" json:"userId"`
	StyleID   uint      `gorm:"not null;uniqueIndex:idx_likes_user_style;index" json:"styleId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Style     *Style    `gorm:"foreignKey:StyleID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is an immutable remark on a style.
type Comment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Text      string       `gorm:"size:500;not null" json:"text"`
	StyleID   uint         `gorm:"not null;index:idx_comments_style_created,priority:1" json:"styleId"`
	UserID    uint         `gorm:"not null;index" json:"userId"`
	Style     *Style       `gorm:"foreignKey:StyleID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author    *UserSummary `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time    `gorm:"index:idx_comments_style_created,priority:2" json:"createdAt"`
}

// StyleRank is one entry of the most viewed or most liked style boards.
type StyleRank struct {
	Rank  int    `json:"rank"`
	Style *Style `json:"style"`
}

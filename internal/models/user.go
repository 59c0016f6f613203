// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// SubscriptionTier controls per-user upload limits.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// Valid reports whether t is a known tier.
func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// User represents an account in the style catalogue.
type User struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Name           string           `gorm:"size:50;not null" json:"name"`
	Email          string           `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password       string           `gorm:"not null" json:"-"`
	Avatar         string           `gorm:"size:500" json:"avatar"`
	Bio            string           `gorm:"size:500" json:"bio"`
	Tier           SubscriptionTier `gorm:"column:subscription_tier;size:20;not null;default:free" json:"subscriptionTier"`
	FollowersCount int64            `gorm:"not null;default:0" json:"followersCount"`
	FollowingCount int64            `gorm:"not null;default:0" json:"followingCount"`
	// StylesCount is computed at query time
	StylesCount int64 `gorm:"->;-:migration" json:"stylesCount"`
	// IsFollowing reports whether the requesting user follows this user (computed)
	IsFollowing bool      `gorm:"->;-:migration" json:"isFollowing"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserSummary is the public author card embedded in styles, comments and lists.
type UserSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Summary returns the public card for u.
func (u *User) Summary() *UserSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// Public strips fields only the account owner may see.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Email = ""
	return &out
}

// Follow is the directed relation follower -> following.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index;check:chk_follows_not_self,follower_id <> following_id" json:"followingId"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   *User     `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeaderboardEntry is one ranked contributor.
type LeaderboardEntry struct {
	Rank        int          `json:"rank"`
	User        *UserSummary `json:"user"`
	StylesCount int64        `json:"stylesCount"`
	TotalLikes  int64        `json:"totalLikes"`
	TotalViews  int64        `json:"totalViews"`
}

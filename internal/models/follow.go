package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a follower -> following edge. It is the only stored
// representation of the relationship.
type Follow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	FollowerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index" bson:"followerId" json:"followerId"`
	FollowingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index" bson:"followingId" json:"followingId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	f.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID and timestamp.
func (f *Follow) PrepareForInsert() {
	ensureID(&f.ID)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
}

// FollowResult is returned by a follow toggle.
type FollowResult struct {
	Following      bool `json:"following"`
	Followers      int  `json:"followers"`
	FollowingCount int  `json:"followingCount"`
}

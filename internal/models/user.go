package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationSettings controls which notification types a user receives.
type NotificationSettings struct {
	Email     bool `json:"email" bson:"email"`
	Push      bool `json:"push" bson:"push"`
	Followers bool `json:"followers" bson:"followers"`
	Comments  bool `json:"comments" bson:"comments"`
	Likes     bool `json:"likes" bson:"likes"`
	Mentions  bool `json:"mentions" bson:"mentions"`
	Marketing bool `json:"marketing" bson:"marketing"`
}

// PrivacySettings are profile visibility preferences.
type PrivacySettings struct {
	IsPrivate          bool `json:"isPrivate" bson:"isPrivate"`
	ShowActivityStatus bool `json:"showActivityStatus" bson:"showActivityStatus"`
	AllowTagging       bool `json:"allowTagging" bson:"allowTagging"`
	AllowMessaging     bool `json:"allowMessaging" bson:"allowMessaging"`
	ShowPosts          bool `json:"showPosts" bson:"showPosts"`
	ShowStories        bool `json:"showStories" bson:"showStories"`
}

// DefaultNotificationSettings returns the settings new accounts start with.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email:     true,
		Push:      true,
		Followers: true,
		Comments:  true,
		Likes:     true,
		Mentions:  true,
	}
}

// DefaultPrivacySettings returns the settings new accounts start with.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ShowActivityStatus: true,
		AllowTagging:       true,
		AllowMessaging:     true,
		ShowPosts:          true,
		ShowStories:        true,
	}
}

// User is a DevGram account.
//
// Following is never persisted on the user row: it is read from the follow
// edge table. Followers and FollowingCount are stored counters that are
// recomputed from the same table whenever an edge changes.
type User struct {
	ID                   string               `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Username             string               `gorm:"uniqueIndex;size:30;not null" bson:"username" json:"username"`
	Email                string               `gorm:"uniqueIndex;not null" bson:"email" json:"email,omitempty"`
	Password             string               `gorm:"not null" bson:"password" json:"-"`
	FullName             string               `bson:"fullName" json:"fullName"`
	Avatar               string               `bson:"avatar" json:"avatar"`
	Bio                  string               `gorm:"type:text" bson:"bio" json:"bio"`
	Website              string               `bson:"website" json:"website"`
	Followers            int                  `gorm:"not null;default:0" bson:"followers" json:"followers"`
	Following            []string             `gorm:"-" bson:"-" json:"following"`
	FollowingCount       int                  `gorm:"not null;default:0" bson:"followingCount" json:"followingCount"`
	IsVerified           bool                 `bson:"isVerified" json:"isVerified"`
	TwoFactorEnabled     bool                 `bson:"twoFactorEnabled" json:"twoFactorEnabled"`
	NotificationSettings NotificationSettings `gorm:"type:text;serializer:json" bson:"notificationSettings" json:"notificationSettings"`
	PrivacySettings      PrivacySettings      `gorm:"type:text;serializer:json" bson:"privacySettings" json:"privacySettings"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an ID and fills defaults.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	u.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID, avatar and timestamps. It is called by every
// backend before a user is first written.
func (u *User) PrepareForInsert() {
	ensureID(&u.ID)
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// Public returns a copy safe to show to other users.
func (u User) Public() User {
	u.Email = ""
	u.Password = ""
	return u
}

// UserSummary is the compact user projection embedded in other responses.
type UserSummary struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

// Summary projects the user to the fields returned alongside tokens.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// UserProfile is a public profile as seen by a particular viewer.
type UserProfile struct {
	User
	IsFollowing bool `json:"isFollowing"`
}

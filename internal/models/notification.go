package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates the events that produce notifications.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
	NotificationMention NotificationType = "mention"
)

// Notification content strings.
const (
	ContentLiked            = "liked your post"
	ContentCommented        = "commented on your post"
	ContentMentionedPost    = "mentioned you in a post"
	ContentMentionedComment = "mentioned you in a comment"
	ContentFollowed         = "started following you"
	ContentMessaged         = "sent you a message"
)

// Notification is addressed from one username to another.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Sender    string           `gorm:"size:30;not null" bson:"sender" json:"sender"`
	Recipient string           `gorm:"index;size:30;not null" bson:"recipient" json:"recipient"`
	Type      NotificationType `gorm:"size:16;not null" bson:"type" json:"type"`
	Content   string           `bson:"content" json:"content"`
	PostID    string           `gorm:"type:varchar(36)" bson:"postId,omitempty" json:"postId,omitempty"`
	Read      bool             `gorm:"not null;default:false" bson:"read" json:"read"`
	CreatedAt time.Time        `gorm:"index" bson:"createdAt" json:"createdAt"`
	User      *UserSummary     `gorm:"-" bson:"-" json:"user,omitempty"`
}

// BeforeCreate assigns an ID.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	n.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID and timestamp.
func (n *Notification) PrepareForInsert() {
	ensureID(&n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
}

// Enabled reports whether settings allow notifications of type t.
// Messages are always delivered.
func (s NotificationSettings) Enabled(t NotificationType) bool {
	switch t {
	case NotificationLike:
		return s.Likes
	case NotificationComment:
		return s.Comments
	case NotificationFollow:
		return s.Followers
	case NotificationMention:
		return s.Mentions
	default:
		return true
	}
}

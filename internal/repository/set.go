package repository

import "gorm.io/gorm"

// Set bundles one implementation of every repository so callers can swap
// the storage backend as a unit.
type Set struct {
	Users         UserRepository
	Follows       FollowRepository
	Posts         PostRepository
	Messages      MessageRepository
	Notifications NotificationRepository
}

// NewSet returns the GORM-backed repositories for db.
func NewSet(db *gorm.DB) Set {
	return Set{
		Users:         NewUserRepository(db),
		Follows:       NewFollowRepository(db),
		Posts:         NewPostRepository(db),
		Messages:      NewMessageRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

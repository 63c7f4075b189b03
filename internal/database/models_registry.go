package database

import "devgram/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.PostSave{},
		&models.Follow{},
		&models.Message{},
		&models.Notification{},
	}
}

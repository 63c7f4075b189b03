package repository

import (
	"context"

	"devgram/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message storage.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListForUser returns every message the user sent or received, newest first.
	ListForUser(ctx context.Context, username string) ([]models.Message, error)
	// Thread returns the messages exchanged between a and b, oldest first.
	Thread(ctx context.Context, a, b string) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) ListForUser(ctx context.Context, username string) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("sender = ? OR receiver = ?", username, username).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) Thread(ctx context.Context, a, b string) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

package repository

import (
	"context"

	"devgram/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListForRecipient returns the recipient's notifications, newest first.
	// A limit of zero or less returns all of them.
	ListForRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	// MarkRead flags the recipient's unread notifications with the given IDs
	// as read and returns how many changed. IDs addressed to someone else,
	// and notifications already read, are not counted.
	MarkRead(ctx context.Context, recipient string, ids []string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a GORM-backed NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	list := []models.Notification{}
	q := r.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipient string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient = ? AND id IN ? AND read = ?", recipient, ids, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

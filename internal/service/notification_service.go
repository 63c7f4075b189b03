package service

import (
	"context"
	"log/slog"

	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/repository"
)

// UnknownUsername stands in for notification senders that no longer exist.
const UnknownUsername = "Unknown User"

// Dispatcher pushes a stored notification to connected clients.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *models.Notification) error
}

// UserDirectory resolves usernames to user records. Missing users are
// absent from the returned map. Invalidate drops a stale entry after a
// profile change.
type UserDirectory interface {
	Lookup(ctx context.Context, usernames []string) (map[string]*models.User, error)
	Invalidate(username string)
}

// NotifyInput describes one notification to fan out.
type NotifyInput struct {
	Sender    string
	Recipient string
	Type      models.NotificationType
	Content   string
	PostID    string
}

// NotificationService stores notifications, honors recipient preferences and
// hands new rows to the realtime dispatcher.
type NotificationService struct {
	repo       repository.NotificationRepository
	directory  UserDirectory
	dispatcher Dispatcher
}

// NewNotificationService returns a NotificationService. dispatcher may be nil.
func NewNotificationService(repo repository.NotificationRepository, directory UserDirectory, dispatcher Dispatcher) *NotificationService {
	return &NotificationService{
		repo:       repo,
		directory:  directory,
		dispatcher: dispatcher,
	}
}

// Notify stores every input whose recipient exists and accepts its type,
// then dispatches the stored rows. It returns the stored notifications.
func (s *NotificationService) Notify(ctx context.Context, inputs ...NotifyInput) ([]*models.Notification, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(inputs)*2)
	for _, in := range inputs {
		names = append(names, in.Sender, in.Recipient)
	}
	users, err := s.directory.Lookup(ctx, names)
	if err != nil {
		return nil, err
	}

	var stored []*models.Notification
	for _, in := range inputs {
		recipient, ok := users[in.Recipient]
		if !ok {
			continue
		}
		if !recipient.NotificationSettings.Enabled(in.Type) {
			continue
		}
		n := &models.Notification{
			Sender:    in.Sender,
			Recipient: in.Recipient,
			Type:      in.Type,
			Content:   in.Content,
			PostID:    in.PostID,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return stored, err
		}
		n.User = senderSummary(users[in.Sender])
		stored = append(stored, n)
		s.dispatch(ctx, n)
	}
	return stored, nil
}

// Emit is Notify for callers that already committed their own mutation:
// failures are logged, never returned.
func (s *NotificationService) Emit(ctx context.Context, inputs ...NotifyInput) {
	if s == nil {
		return
	}
	if _, err := s.Notify(ctx, inputs...); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to create notifications",
			slog.Int("count", len(inputs)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *NotificationService) dispatch(ctx context.Context, n *models.Notification) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "notification dispatch failed",
			slog.String("notification_id", n.ID),
			slog.String("recipient", n.Recipient),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the recipient's notifications, newest first, each enriched
// with its sender.
func (s *NotificationService) List(ctx context.Context, recipient string) ([]models.Notification, error) {
	list, err := s.repo.ListForRecipient(ctx, recipient, 0)
	if err != nil {
		return nil, err
	}
	senders := make([]string, 0, len(list))
	for _, n := range list {
		senders = append(senders, n.Sender)
	}
	users, err := s.directory.Lookup(ctx, senders)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].User = senderSummary(users[list[i].Sender])
	}
	return list, nil
}

// MarkRead flags the given notifications as read. Only notifications
// addressed to recipient are touched.
func (s *NotificationService) MarkRead(ctx context.Context, recipient string, ids []string) error {
	if len(ids) == 0 {
		return models.NewValidationError("Notification IDs are required")
	}
	n, err := s.repo.MarkRead(ctx, recipient, ids)
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.AppError{Code: models.CodeNotFound, Message: "No notifications found"}
	}
	return nil
}

func senderSummary(u *models.User) *models.UserSummary {
	if u == nil {
		return &models.UserSummary{Username: UnknownUsername, Avatar: models.UnknownAvatar}
	}
	return &models.UserSummary{Username: u.Username, Avatar: u.Avatar}
}

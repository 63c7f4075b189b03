package service

import (
	"context"
	"strings"

	"devgram/internal/models"
	"devgram/internal/repository"
)

const maxMessageLen = 5000

// MessageService handles direct messages and the conversation list.
type MessageService struct {
	messages      repository.MessageRepository
	users         repository.UserRepository
	directory     UserDirectory
	notifications *NotificationService
}

// NewMessageService returns a new MessageService.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, directory UserDirectory, notifications *NotificationService) *MessageService {
	return &MessageService{
		messages:      messages,
		users:         users,
		directory:     directory,
		notifications: notifications,
	}
}

// Send stores a message from the actor to receiver and notifies the receiver.
func (s *MessageService) Send(ctx context.Context, actor Actor, receiver, content string) (*models.Message, error) {
	receiver = strings.TrimSpace(receiver)
	content = strings.TrimSpace(content)
	if receiver == "" || content == "" {
		return nil, models.NewValidationError("Receiver and content are required")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}
	if receiver == actor.Username {
		return nil, models.NewValidationError("Cannot send a message to yourself")
	}

	target, err := s.users.GetByUsername(ctx, receiver)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewNotFoundError("User", receiver)
	}

	msg := &models.Message{
		Sender:   actor.Username,
		Receiver: target.Username,
		Content:  content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifications.Emit(ctx, NotifyInput{
		Sender:    actor.Username,
		Recipient: target.Username,
		Type:      models.NotificationMessage,
		Content:   models.ContentMessaged,
	})
	return msg, nil
}

// Thread returns the messages between the actor and other, oldest first.
func (s *MessageService) Thread(ctx context.Context, actor Actor, other string) ([]models.Message, error) {
	return s.messages.Thread(ctx, actor.Username, other)
}

// Conversations returns one entry per counterpart, carrying the latest
// message, newest conversation first. Counterparts without an account are
// dropped.
func (s *MessageService) Conversations(ctx context.Context, actor Actor) ([]models.Conversation, error) {
	msgs, err := s.messages.ListForUser(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	var order []string
	latest := make(map[string]models.Message)
	for _, m := range msgs {
		other := m.Counterpart(actor.Username)
		if _, seen := latest[other]; seen {
			continue
		}
		latest[other] = m
		order = append(order, other)
	}

	users, err := s.directory.Lookup(ctx, order)
	if err != nil {
		return nil, err
	}

	out := make([]models.Conversation, 0, len(order))
	for _, name := range order {
		u, ok := users[name]
		if !ok {
			continue
		}
		m := latest[name]
		out = append(out, models.Conversation{
			Username: u.Username,
			Avatar:   u.Avatar,
			LastMessage: models.LastMessage{
				Content:   m.Content,
				Timestamp: m.CreatedAt,
				Sender:    m.Sender,
			},
		})
	}
	return out, nil
}

package service

import (
	"context"
	"strings"

	"devgram/internal/featureflags"
	"devgram/internal/models"
	"devgram/internal/repository"
)

const maxCommentLen = 2000

type CommentService struct {
	posts         repository.PostRepository
	notifications *NotificationService
	flags         *featureflags.Manager
}

func NewCommentService(posts repository.PostRepository, notifications *NotificationService, flags *featureflags.Manager) *CommentService {
	return &CommentService{
		posts:         posts,
		notifications: notifications,
		flags:         flags,
	}
}

// Add appends a comment by the actor, notifies the post author and every
// other mentioned user.
func (s *CommentService) Add(ctx context.Context, actor Actor, postID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	avatar := actor.Avatar
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	comment := &models.Comment{
		Username: actor.Username,
		Avatar:   avatar,
		Text:     text,
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, err
	}

	author := post.Author.Username
	var inputs []NotifyInput
	if author != actor.Username {
		inputs = append(inputs, NotifyInput{
			Sender:    actor.Username,
			Recipient: author,
			Type:      models.NotificationComment,
			Content:   models.ContentCommented,
			PostID:    postID,
		})
	}
	dedupe := s.flags.Enabled(featureflags.DedupeMentions, actor.ID)
	for _, name := range ExtractMentions(dedupe, text) {
		if name == actor.Username || name == author {
			continue
		}
		inputs = append(inputs, NotifyInput{
			Sender:    actor.Username,
			Recipient: name,
			Type:      models.NotificationMention,
			Content:   models.ContentMentionedComment,
			PostID:    postID,
		})
	}
	s.notifications.Emit(ctx, inputs...)

	return comment, nil
}

func (s *CommentService) List(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.posts.ListComments(ctx, postID)
}

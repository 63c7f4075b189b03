package service

import (
	"context"

	"devgram/internal/models"
	"devgram/internal/observability"
	"devgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowService toggles follow edges and lists both sides of the graph.
type FollowService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications *NotificationService
}

// NewFollowService returns a new FollowService.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, notifications *NotificationService) *FollowService {
	return &FollowService{
		follows:       follows,
		users:         users,
		notifications: notifications,
	}
}

// Toggle follows targetID when the actor does not follow them yet, and
// unfollows otherwise.
func (s *FollowService) Toggle(ctx context.Context, actor Actor, targetID string) (*models.FollowResult, error) {
	if targetID == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, actor, target)
}

// ToggleByUsername is Toggle addressed by the target's username.
func (s *FollowService) ToggleByUsername(ctx context.Context, actor Actor, username string) (*models.FollowResult, error) {
	target, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, actor, target)
}

func (s *FollowService) toggle(ctx context.Context, actor Actor, target *models.User) (result *models.FollowResult, err error) {
	ctx, span := observability.StartSpan(ctx, "follow", "toggle",
		attribute.String("follower.id", actor.ID),
		attribute.String("target.id", target.ID),
	)
	defer func() { observability.EndSpan(span, err) }()

	follower, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	result, err = s.follows.Toggle(ctx, follower.ID, target.ID)
	if err != nil {
		return nil, err
	}

	if result.Following && follower.ID != target.ID {
		s.notifications.Emit(ctx, NotifyInput{
			Sender:    follower.Username,
			Recipient: target.Username,
			Type:      models.NotificationFollow,
			Content:   models.ContentFollowed,
		})
	}
	return result, nil
}

// IsFollowing reports whether the actor follows targetID.
func (s *FollowService) IsFollowing(ctx context.Context, actor Actor, targetID string) (bool, error) {
	if actor.ID == "" || targetID == "" {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, actor.ID, targetID)
}

// Following lists the public profiles userID follows.
func (s *FollowService) Following(ctx context.Context, userID string) ([]models.User, error) {
	ids, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, ids)
}

// Followers lists the public profiles following userID.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]models.User, error) {
	ids, err := s.follows.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, ids)
}

// FollowingOf resolves username and lists who they follow.
func (s *FollowService) FollowingOf(ctx context.Context, username string) ([]models.User, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Following(ctx, user.ID)
}

// FollowersOf resolves username and lists their followers.
func (s *FollowService) FollowersOf(ctx context.Context, username string) ([]models.User, error) {
	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Followers(ctx, user.ID)
}

func (s *FollowService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

func (s *FollowService) publicUsers(ctx context.Context, ids []string) ([]models.User, error) {
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

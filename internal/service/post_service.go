package service

import (
	"context"
	"strings"

	"devgram/internal/featureflags"
	"devgram/internal/models"
	"devgram/internal/observability"
	"devgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Post actions accepted by ApplyAction.
const (
	ActionLike    = "like"
	ActionSave    = "save"
	ActionComment = "comment"
)

// PostService handles post creation, the like and save toggles and the
// post feeds.
type PostService struct {
	posts         repository.PostRepository
	users         repository.UserRepository
	comments      *CommentService
	notifications *NotificationService
	flags         *featureflags.Manager
}

// CreatePostInput is the content of a new post. At least one field must be set.
type CreatePostInput struct {
	Caption  string
	Content  string
	Image    string
	Video    string
	Code     string
	Language string
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// NewPostService returns a new PostService.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	comments *CommentService,
	notifications *NotificationService,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		posts:         posts,
		users:         users,
		comments:      comments,
		notifications: notifications,
		flags:         flags,
	}
}

// Create stores a post authored by the actor and notifies mentioned users.
func (s *PostService) Create(ctx context.Context, actor Actor, in CreatePostInput) (*models.Post, error) {
	post := &models.Post{
		Author:   models.Author{Username: actor.Username, Avatar: actor.Avatar},
		Caption:  strings.TrimSpace(in.Caption),
		Content:  strings.TrimSpace(in.Content),
		Image:    strings.TrimSpace(in.Image),
		Video:    strings.TrimSpace(in.Video),
		Code:     in.Code,
		Language: strings.ToLower(strings.TrimSpace(in.Language)),
	}
	if strings.TrimSpace(post.Code) == "" {
		post.Code = ""
	}
	if post.IsEmpty() {
		return nil, models.NewValidationError("Post must have a caption, content, image, video or code")
	}
	if post.Author.Avatar == "" {
		post.Author.Avatar = models.DefaultAvatar
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	dedupe := s.flags.Enabled(featureflags.DedupeMentions, actor.ID)
	var inputs []NotifyInput
	for _, name := range ExtractMentions(dedupe, post.Caption, post.Content) {
		if name == actor.Username {
			continue
		}
		inputs = append(inputs, NotifyInput{
			Sender:    actor.Username,
			Recipient: name,
			Type:      models.NotificationMention,
			Content:   models.ContentMentionedPost,
			PostID:    post.ID,
		})
	}
	s.notifications.Emit(ctx, inputs...)

	post.ForViewer(actor.Username)
	return post, nil
}

// Get returns one post with the viewer's liked and saved flags.
func (s *PostService) Get(ctx context.Context, viewer Actor, id string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.ForViewer(viewer.Username)
	return post, nil
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context, viewer Actor, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return forViewer(posts, viewer), nil
}

// ListByAuthor returns the posts of one existing user, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, viewer Actor, username string, limit, offset int) ([]*models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	limit, offset = clampPage(limit, offset)
	posts, err := s.posts.ListByAuthor(ctx, user.Username, limit, offset)
	if err != nil {
		return nil, err
	}
	return forViewer(posts, viewer), nil
}

// Delete removes a post. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, actor Actor, id string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Author.Username != actor.Username {
		return models.NewForbiddenError("Not authorized")
	}
	return s.posts.Delete(ctx, id)
}

// ToggleLike likes or unlikes a post and notifies its author on a like.
func (s *PostService) ToggleLike(ctx context.Context, actor Actor, id string) (_ *LikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "toggle_like", attribute.String("post.id", id))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	liked, likes, err := s.posts.ToggleLike(ctx, id, actor.Username)
	if err != nil {
		return nil, err
	}
	if liked && post.Author.Username != actor.Username {
		s.notifications.Emit(ctx, NotifyInput{
			Sender:    actor.Username,
			Recipient: post.Author.Username,
			Type:      models.NotificationLike,
			Content:   models.ContentLiked,
			PostID:    id,
		})
	}
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

// ToggleSave adds the post to or removes it from the actor's saved set.
func (s *PostService) ToggleSave(ctx context.Context, actor Actor, id string) (bool, error) {
	return s.posts.ToggleSave(ctx, id, actor.Username)
}

// ApplyAction runs a like, save or comment action and returns the updated post.
func (s *PostService) ApplyAction(ctx context.Context, actor Actor, id, action, comment string) (*models.Post, error) {
	switch action {
	case ActionLike:
		if _, err := s.ToggleLike(ctx, actor, id); err != nil {
			return nil, err
		}
	case ActionSave:
		if _, err := s.ToggleSave(ctx, actor, id); err != nil {
			return nil, err
		}
	case ActionComment:
		if _, err := s.comments.Add(ctx, actor, id, comment); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Invalid action")
	}
	return s.Get(ctx, actor, id)
}

// Similar returns up to six posts related to id by content, caption or
// language.
func (s *PostService) Similar(ctx context.Context, viewer Actor, id string) ([]*models.Post, error) {
	source, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Similar(ctx, source, repository.SimilarLimit)
	if err != nil {
		return nil, err
	}
	return forViewer(posts, viewer), nil
}

func forViewer(posts []*models.Post, viewer Actor) []*models.Post {
	for _, p := range posts {
		p.ForViewer(viewer.Username)
	}
	return posts
}

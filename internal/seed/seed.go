// Package seed loads demo data into any DevGram store. Data goes through the
// service layer, so seeded accounts, counters and notifications look exactly
// like ones produced through the API.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"devgram/internal/cache"
	"devgram/internal/featureflags"
	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/repository"
	"devgram/internal/service"
)

// Summary counts what a seed run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Messages int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d follows, %d posts, %d likes, %d comments, %d messages",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments, s.Messages)
}

// noTokens satisfies service.TokenIssuer; seeding never needs a session.
type noTokens struct{}

func (noTokens) IssueToken(*models.User) (string, error) { return "", nil }

// Seeder replays fixtures through the services.
type Seeder struct {
	accounts *service.UserService
	follows  *service.FollowService
	posts    *service.PostService
	comments *service.CommentService
	messages *service.MessageService
}

// NewSeeder wires the services over repos. Notifications are stored but not
// pushed anywhere.
func NewSeeder(repos repository.Set, flags string) *Seeder {
	ff := featureflags.NewManager(flags)
	directory := cache.NewUserDirectory(nil, repos.Users.ListByUsernames)
	notify := service.NewNotificationService(repos.Notifications, directory, nil)
	comments := service.NewCommentService(repos.Posts, notify, ff)
	return &Seeder{
		accounts: service.NewUserService(repos.Users, repos.Follows, noTokens{}, directory),
		follows:  service.NewFollowService(repos.Follows, repos.Users, notify),
		posts:    service.NewPostService(repos.Posts, repos.Users, comments, notify, ff),
		comments: comments,
		messages: service.NewMessageService(repos.Messages, repos.Users, directory, notify),
	}
}

// Seed registers the fixture's users, then replays follows, posts with their
// likes, saves and comments, and finally messages. It stops at the first
// failure.
func (s *Seeder) Seed(ctx context.Context, fx *Fixture) (*Summary, error) {
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	sum := &Summary{}
	actors := make(map[string]service.Actor, len(fx.Users))

	for _, u := range fx.Users {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		email := u.Email
		if email == "" {
			email = u.Username + "@devgram.test"
		}
		res, err := s.accounts.Register(ctx, service.RegisterInput{
			Username: u.Username,
			Email:    email,
			Password: password,
			FullName: u.FullName,
		})
		if err != nil {
			return sum, fmt.Errorf("register %s: %w", u.Username, err)
		}
		actor := service.Actor{ID: res.User.ID, Username: res.User.Username, Avatar: res.User.Avatar}
		if u.Bio != "" {
			bio := u.Bio
			if _, err := s.accounts.UpdateProfile(ctx, actor, actor.Username, service.ProfileInput{Bio: &bio}); err != nil {
				return sum, fmt.Errorf("profile %s: %w", u.Username, err)
			}
		}
		actors[u.Username] = actor
		sum.Users++
	}
	middleware.Logger.Info("seeded users", slog.Int("count", sum.Users))

	for _, f := range fx.Follows {
		if f.Follower == f.Target {
			continue
		}
		ok, err := s.follows.IsFollowing(ctx, actors[f.Follower], actors[f.Target].ID)
		if err != nil {
			return sum, err
		}
		if ok {
			continue
		}
		if _, err := s.follows.Toggle(ctx, actors[f.Follower], actors[f.Target].ID); err != nil {
			return sum, fmt.Errorf("follow %s -> %s: %w", f.Follower, f.Target, err)
		}
		sum.Follows++
	}

	for i, p := range fx.Posts {
		post, err := s.posts.Create(ctx, actors[p.Author], service.CreatePostInput{
			Caption:  p.Caption,
			Content:  p.Content,
			Image:    p.Image,
			Code:     p.Code,
			Language: p.Language,
		})
		if err != nil {
			return sum, fmt.Errorf("posts[%d]: %w", i, err)
		}
		sum.Posts++

		liked := make(map[string]struct{}, len(p.LikedBy))
		for _, name := range p.LikedBy {
			if _, dup := liked[name]; dup {
				continue
			}
			liked[name] = struct{}{}
			if _, err := s.posts.ToggleLike(ctx, actors[name], post.ID); err != nil {
				return sum, fmt.Errorf("posts[%d] like by %s: %w", i, name, err)
			}
			sum.Likes++
		}
		saved := make(map[string]struct{}, len(p.SavedBy))
		for _, name := range p.SavedBy {
			if _, dup := saved[name]; dup {
				continue
			}
			saved[name] = struct{}{}
			if _, err := s.posts.ToggleSave(ctx, actors[name], post.ID); err != nil {
				return sum, fmt.Errorf("posts[%d] save by %s: %w", i, name, err)
			}
		}
		for _, c := range p.Comments {
			if _, err := s.comments.Add(ctx, actors[c.Author], post.ID, c.Text); err != nil {
				return sum, fmt.Errorf("posts[%d] comment by %s: %w", i, c.Author, err)
			}
			sum.Comments++
		}
	}
	middleware.Logger.Info("seeded posts", slog.Int("posts", sum.Posts), slog.Int("likes", sum.Likes), slog.Int("comments", sum.Comments))

	for i, m := range fx.Messages {
		if _, err := s.messages.Send(ctx, actors[m.From], m.To, m.Content); err != nil {
			return sum, fmt.Errorf("messages[%d]: %w", i, err)
		}
		sum.Messages++
	}

	return sum, nil
}

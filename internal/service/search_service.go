package service

import (
	"context"
	"strings"

	"devgram/internal/models"
	"devgram/internal/repository"
)

// Search types.
const (
	SearchAll   = "all"
	SearchUsers = "users"
	SearchPosts = "posts"
)

// SearchResult holds both result lists. A list not asked for stays empty.
type SearchResult struct {
	Users []models.User  `json:"users"`
	Posts []*models.Post `json:"posts"`
}

type SearchService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func NewSearchService(users repository.UserRepository, posts repository.PostRepository) *SearchService {
	return &SearchService{users: users, posts: posts}
}

// Search matches users by username or full name and posts by content,
// caption or comment text. Each list holds at most ten entries.
func (s *SearchService) Search(ctx context.Context, viewer Actor, query, kind string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if kind == "" {
		kind = SearchAll
	}
	if kind != SearchAll && kind != SearchUsers && kind != SearchPosts {
		return nil, models.NewValidationError("Invalid search type")
	}

	result := &SearchResult{Users: []models.User{}, Posts: []*models.Post{}}

	if kind == SearchAll || kind == SearchUsers {
		users, err := s.users.Search(ctx, query, repository.SearchLimit)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			result.Users = append(result.Users, u.Public())
		}
	}

	if kind == SearchAll || kind == SearchPosts {
		posts, err := s.posts.Search(ctx, query, repository.SearchLimit)
		if err != nil {
			return nil, err
		}
		result.Posts = forViewer(posts, viewer)
	}

	return result, nil
}

package server

import (
	"devgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description All posts, newest first, with comments and the like set
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)

	posts, err := s.postService.List(c.UserContext(), viewer(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{caption=string,content=string,image=string,video=string,code=string,language=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Caption  string `json:"caption"`
		Content  string `json:"content"`
		Image    string `json:"image"`
		Video    string `json:"video"`
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), actor(c), service.CreatePostInput{
		Caption:  req.Caption,
		Content:  req.Content,
		Image:    req.Image,
		Video:    req.Video,
		Code:     req.Code,
		Language: req.Language,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.Get(c.UserContext(), viewer(c), param(c, "id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id with {action: like|save|comment}.
// @Summary Apply an action to a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{action=string,comment=string} true "Action"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req struct {
		Action  string `json:"action"`
		Comment string `json:"comment"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.ApplyAction(c.UserContext(), actor(c), param(c, "id"), req.Action, req.Comment)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.Delete(c.UserContext(), actor(c), param(c, "id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	result, err := s.postService.ToggleLike(c.UserContext(), actor(c), param(c, "id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// SavePost handles POST /api/posts/:id/save
func (s *Server) SavePost(c *fiber.Ctx) error {
	saved, err := s.postService.ToggleSave(c.UserContext(), actor(c), param(c, "id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"saved": saved})
}

// GetSimilarPosts handles GET /api/posts/:id/similar
func (s *Server) GetSimilarPosts(c *fiber.Ctx) error {
	posts, err := s.postService.Similar(c.UserContext(), viewer(c), param(c, "id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)

	posts, err := s.postService.ListByAuthor(c.UserContext(), viewer(c), param(c, "username"), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

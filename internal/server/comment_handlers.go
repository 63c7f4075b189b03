package server

import "github.com/gofiber/fiber/v2"

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentService.List(c.UserContext(), param(c, "id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Description Notifies the post author and every user mentioned with @name
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{content=string} true "Comment (text is accepted as an alias)"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
		Text    string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	text := req.Content
	if text == "" {
		text = req.Text
	}

	comment, err := s.commentService.Add(c.UserContext(), actor(c), param(c, "id"), text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

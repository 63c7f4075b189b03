package server

import "github.com/gofiber/fiber/v2"

// Search handles GET /api/search?q=&type=all|users|posts
// @Summary Search users and posts
// @Tags search
// @Security BearerAuth
// @Produce json
// @Param q query string true "Substring to match"
// @Param type query string false "all, users or posts"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	result, err := s.searchService.Search(c.UserContext(), actor(c), c.Query("q"), c.Query("type"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

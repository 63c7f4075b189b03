package server

import (
	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/follow. Following an already-followed user unfollows them.
// @Summary Toggle follow by user ID
// @Tags follow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{userId=string} true "Target user"
// @Success 200 {object} models.FollowResult
// @Router /follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.followService.Toggle(c.UserContext(), actor(c), req.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// FollowStatus handles GET /api/follow. With ?userId= it reports whether the
// caller follows that user; without it, it lists who the caller follows.
func (s *Server) FollowStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	me := actor(c)

	targetID := c.Query("userId")
	if targetID == "" {
		users, err := s.followService.Following(ctx, me.ID)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(users)
	}

	following, err := s.followService.IsFollowing(ctx, me, targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"isFollowing": following})
}

// FollowByUsername handles POST /api/users/:username/follow
func (s *Server) FollowByUsername(c *fiber.Ctx) error {
	result, err := s.followService.ToggleByUsername(c.UserContext(), actor(c), param(c, "username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	users, err := s.followService.FollowersOf(c.UserContext(), param(c, "username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	users, err := s.followService.FollowingOf(c.UserContext(), param(c, "username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

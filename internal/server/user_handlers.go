package server

import (
	"context"
	"errors"
	"time"

	"devgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

type profileRequest struct {
	FullName *string `json:"fullName"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
	Avatar   *string `json:"avatar"`
}

func (r profileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		FullName: r.FullName,
		Bio:      r.Bio,
		Website:  r.Website,
		Avatar:   r.Avatar,
	}
}

// GetUserProfile handles GET /api/users/:username
// @Summary Public profile
// @Description Public projection of a user plus whether the caller follows them
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	profile, err := s.userService.GetProfile(ctx, viewer(c), param(c, "username"))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "Request timeout",
			})
		}
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateUserProfile handles PATCH /api/users/:username. Only the owner may edit.
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), actor(c), param(c, "username"), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetMe(c.UserContext(), actor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PATCH /api/profile
// @Summary Update own account
// @Description Profile fields, settings merges and password change. The username is immutable.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		profileRequest
		CurrentPassword      string                             `json:"currentPassword"`
		NewPassword          string                             `json:"newPassword"`
		NotificationSettings *service.NotificationSettingsPatch `json:"notificationSettings"`
		PrivacySettings      *service.PrivacySettingsPatch      `json:"privacySettings"`
		TwoFactorEnabled     *bool                              `json:"twoFactorEnabled"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateMe(c.UserContext(), actor(c), service.UpdateMeInput{
		ProfileInput:         req.profileRequest.input(),
		CurrentPassword:      req.CurrentPassword,
		NewPassword:          req.NewPassword,
		NotificationSettings: req.NotificationSettings,
		PrivacySettings:      req.PrivacySettings,
		TwoFactorEnabled:     req.TwoFactorEnabled,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

package server

import (
	"net/http"
	"testing"

	"devgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	status, _ := ts.do(t, http.MethodPost, "/api/users/alice/follow", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)

	tests := []struct {
		name      string
		token     string
		username  string
		status    int
		following bool
	}{
		{name: "anonymous", username: "alice", status: http.StatusOK},
		{name: "follower", token: bob.Token, username: "alice", status: http.StatusOK, following: true},
		{name: "self", token: alice.Token, username: "alice", status: http.StatusOK},
		{name: "unknown user", username: "ghost", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var profile models.UserProfile
			status := ts.doInto(t, http.MethodGet, "/api/users/"+tt.username, tt.token, nil, &profile)
			require.Equal(t, tt.status, status)
			if tt.status != http.StatusOK {
				return
			}
			assert.Equal(t, tt.username, profile.Username)
			assert.Equal(t, 1, profile.Followers)
			assert.Equal(t, tt.following, profile.IsFollowing)
			assert.Empty(t, profile.Email)
		})
	}
}

func TestUpdateUserProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	ts.register(t, "bob")

	t.Run("owner edits", func(t *testing.T) {
		var user models.User
		status := ts.doInto(t, http.MethodPatch, "/api/users/alice", alice.Token,
			fiber.Map{"bio": "  gopher  ", "website": "https://example.com"}, &user)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "gopher", user.Bio)
		assert.Equal(t, "https://example.com", user.Website)
		assert.Equal(t, "Test alice", user.FullName)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodPatch, "/api/users/bob", alice.Token, fiber.Map{"bio": "pwned"})
		assert.Equal(t, http.StatusForbidden, status)
		msg, _ := errorBody(t, raw)
		assert.Equal(t, "Not authorized", msg)

		var bob models.UserProfile
		ts.doInto(t, http.MethodGet, "/api/users/bob", "", nil, &bob)
		assert.Empty(t, bob.Bio)
	})
}

func TestMyProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	ts.register(t, "bob")
	ts.do(t, http.MethodPost, "/api/users/bob/follow", alice.Token, nil)

	t.Run("get includes private fields", func(t *testing.T) {
		var me models.User
		status := ts.doInto(t, http.MethodGet, "/api/profile", alice.Token, nil, &me)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "alice@example.com", me.Email)
		assert.Len(t, me.Following, 1)
		assert.Equal(t, 1, me.FollowingCount)
		assert.Equal(t, models.DefaultNotificationSettings(), me.NotificationSettings)
	})

	t.Run("settings merge field by field", func(t *testing.T) {
		var me models.User
		status := ts.doInto(t, http.MethodPatch, "/api/profile", alice.Token, fiber.Map{
			"username":             "mallory",
			"notificationSettings": fiber.Map{"marketing": true, "likes": false},
			"privacySettings":      fiber.Map{"isPrivate": true},
			"twoFactorEnabled":     true,
		}, &me)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "alice", me.Username)
		assert.True(t, me.NotificationSettings.Marketing)
		assert.False(t, me.NotificationSettings.Likes)
		assert.True(t, me.NotificationSettings.Comments)
		assert.True(t, me.PrivacySettings.IsPrivate)
		assert.True(t, me.PrivacySettings.AllowMessaging)
		assert.True(t, me.TwoFactorEnabled)
	})

	t.Run("password change needs the current password", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodPatch, "/api/profile", alice.Token,
			fiber.Map{"currentPassword": "wrong-one", "newPassword": "another123"})
		assert.Equal(t, http.StatusBadRequest, status)
		msg, _ := errorBody(t, raw)
		assert.Equal(t, "Current password is incorrect", msg)

		status, _ = ts.do(t, http.MethodPatch, "/api/profile", alice.Token,
			fiber.Map{"currentPassword": "secret123", "newPassword": "another123"})
		require.Equal(t, http.StatusOK, status)

		status, _ = ts.do(t, http.MethodPost, "/api/auth/login", "",
			fiber.Map{"email": "alice@example.com", "password": "another123"})
		assert.Equal(t, http.StatusOK, status)
	})
}

package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devgram/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestAuthenticator(t *testing.T) (*Authenticator, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewAuthenticator(testSecret, time.Hour, rdb), mr
}

func testUser() *models.User {
	return &models.User{ID: "u-123", Username: "gopher", Avatar: "/a.png"}
}

func TestIssueAndParseToken(t *testing.T) {
	auth, _ := newTestAuthenticator(t)

	token, err := auth.IssueToken(testUser())
	require.NoError(t, err)

	claims, err := auth.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.UserID())
	assert.Equal(t, "gopher", claims.Username)
	assert.Equal(t, "/a.png", claims.Avatar)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Rejections(t *testing.T) {
	auth, _ := newTestAuthenticator(t)

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() Claims {
		return Claims{
			Username: "gopher",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-1",
				Issuer:    tokenIssuer,
				Audience:  jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noUsername := base()
	noUsername.Username = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(base(), "another-secret")},
		{"expired", sign(expired, testSecret)},
		{"wrong issuer", sign(wrongIssuer, testSecret)},
		{"wrong audience", sign(wrongAudience, testSecret)},
		{"missing username", sign(noUsername, testSecret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRevokeToken(t *testing.T) {
	auth, mr := newTestAuthenticator(t)
	ctx := context.Background()

	token, err := auth.IssueToken(testUser())
	require.NoError(t, err)
	claims, err := auth.ParseToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, auth.Revoke(ctx, claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))

	_, err = auth.ParseToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRequired(t *testing.T) {
	auth, _ := newTestAuthenticator(t)
	token, err := auth.IssueToken(testUser())
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		return c.JSON(fiber.Map{"userID": claims.UserID(), "username": claims.Username})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + token, http.StatusOK},
		{"Lowercase Scheme", "bearer " + token, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Invalid Token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "u-123", body["userID"])
				assert.Equal(t, "gopher", body["username"])
			}
		})
	}
}

func TestOptional(t *testing.T) {
	auth, _ := newTestAuthenticator(t)
	token, err := auth.IssueToken(testUser())
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", auth.Optional(), func(c *fiber.Ctx) error {
		if claims := ClaimsFrom(c); claims != nil {
			return c.SendString(claims.Username)
		}
		return c.SendString("anonymous")
	})

	for header, want := range map[string]string{
		"":                "anonymous",
		"Bearer broken":   "anonymous",
		"Bearer " + token: "gopher",
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, string(body))
	}
}

func TestWebSocketTicketIsSingleUse(t *testing.T) {
	auth, mr := newTestAuthenticator(t)
	ctx := context.Background()

	ticket, err := auth.IssueTicket(ctx, &Claims{
		Username:         "gopher",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-123"},
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("ws_ticket:"+ticket))

	claims, err := auth.RedeemTicket(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.UserID())
	assert.Equal(t, "gopher", claims.Username)
	assert.False(t, mr.Exists("ws_ticket:"+ticket))

	_, err = auth.RedeemTicket(ctx, ticket)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestTicketRequired(t *testing.T) {
	auth, _ := newTestAuthenticator(t)
	app := fiber.New()
	app.Get("/ws", auth.TicketRequired(), func(c *fiber.Ctx) error {
		return c.SendString(ClaimsFrom(c).Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws?ticket=missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ticket, err := auth.IssueTicket(context.Background(), &Claims{
		Username:         "gopher",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/ws?ticket="+ticket, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTicketWithoutRedis(t *testing.T) {
	auth := NewAuthenticator(testSecret, time.Hour, nil)
	_, err := auth.IssueTicket(context.Background(), &Claims{})
	assert.Error(t, err)
	_, err = auth.RedeemTicket(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

// Package middleware provides the HTTP middleware chain: structured logging,
// token authentication, rate limiting, metrics and tracing.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"devgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "devgram-api"
	tokenAudience = "devgram-client"

	claimsLocalsKey = "claims"
	wsTicketTTL     = 60 * time.Second
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrTokenRevoked  = errors.New("token has been revoked")
	ErrInvalidTicket = errors.New("invalid or expired WebSocket ticket")
)

// Claims is the verified identity carried by every authenticated request.
// The subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	jwt.RegisteredClaims
}

// UserID returns the subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// Authenticator issues and verifies bearer tokens and WebSocket tickets.
// A nil Redis client disables revocation and tickets.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator signing HS256 tokens with secret.
func NewAuthenticator(secret string, ttl time.Duration, rdb *redis.Client) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		rdb:    rdb,
		now:    time.Now,
	}
}

func generateJTI() string {
	return uuid.NewString()
}

// IssueToken signs a token for user.
func (a *Authenticator) IssueToken(user *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		Username: user.Username,
		Avatar:   user.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken verifies signature, expiry, issuer and audience, then checks the
// revocation list.
func (a *Authenticator) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Username == "" {
		return nil, ErrInvalidToken
	}

	if claims.ID != "" && a.rdb != nil {
		revoked, err := a.rdb.Exists(ctx, "blacklist:"+claims.ID).Result()
		if err == nil && revoked > 0 {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, "blacklist:"+claims.ID, "1", ttl).Err()
}

// IssueTicket stores a single-use WebSocket ticket for claims.
func (a *Authenticator) IssueTicket(ctx context.Context, claims *Claims) (string, error) {
	if a.rdb == nil {
		return "", errors.New("redis unavailable")
	}
	payload, err := json.Marshal(ticketPayload{UserID: claims.Subject, Username: claims.Username, Avatar: claims.Avatar})
	if err != nil {
		return "", err
	}
	ticket := uuid.NewString()
	if err := a.rdb.Set(ctx, ticketKey(ticket), payload, wsTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// RedeemTicket consumes a ticket and returns the identity stored with it.
func (a *Authenticator) RedeemTicket(ctx context.Context, ticket string) (*Claims, error) {
	if a.rdb == nil || ticket == "" {
		return nil, ErrInvalidTicket
	}
	raw, err := a.rdb.GetDel(ctx, ticketKey(ticket)).Bytes()
	if err != nil {
		return nil, ErrInvalidTicket
	}
	var p ticketPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.UserID == "" {
		return nil, ErrInvalidTicket
	}
	return &Claims{
		Username:         p.Username,
		Avatar:           p.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{Subject: p.UserID},
	}, nil
}

type ticketPayload struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func ticketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *Claims) {
	c.Locals(claimsLocalsKey, claims)
	c.Locals("userID", claims.Subject)
	ctx := context.WithValue(c.UserContext(), UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UsernameKey, claims.Username)
	c.SetUserContext(ctx)
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		claims, err := a.ParseToken(c.UserContext(), tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, ErrTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		setClaims(c, claims)
		return c.Next()
	}
}

// Optional attaches claims when a valid token is present and otherwise lets
// the request through anonymously.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := a.ParseToken(c.UserContext(), tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// TicketRequired authenticates WebSocket upgrades through the ticket query
// parameter. Bearer tokens are not accepted in URLs.
func (a *Authenticator) TicketRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.RedeemTicket(c.UserContext(), c.Query("ticket"))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}
		setClaims(c, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the verified claims for the request, or nil when the
// request is anonymous.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsLocalsKey).(*Claims)
	return claims
}

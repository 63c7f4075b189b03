// Package service holds DevGram's business rules: the social graph, the feed
// and account management. Handlers call into it with the verified caller as
// an Actor; persistence goes through the repository interfaces.
package service

import "devgram/internal/middleware"

// Actor is the authenticated caller, taken from verified token claims.
type Actor struct {
	ID       string
	Username string
	Avatar   string
}

// ActorFromClaims converts verified claims. A nil claims value yields the
// zero Actor, which services treat as an anonymous viewer.
func ActorFromClaims(c *middleware.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{ID: c.UserID(), Username: c.Username, Avatar: c.Avatar}
}

// Pagination defaults for post listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

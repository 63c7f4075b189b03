package server

import (
	"errors"
	"strings"

	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit   = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// mapServiceError picks the HTTP status for an error returned by a service.
// Internal failures are logged here since their cause never reaches the client.
func mapServiceError(c *fiber.Ctx, err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	}
	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	return fiber.StatusInternalServerError
}

// respondServiceError writes err with the status mapServiceError picks.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, mapServiceError(c, err), err)
}

// parseBody decodes the JSON body into dst. On failure it writes a 400
// response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// actor is the authenticated caller. Only valid behind Authenticator.Required.
func actor(c *fiber.Ctx) service.Actor {
	return service.ActorFromClaims(middleware.ClaimsFrom(c))
}

// viewer is the caller on routes where authentication is optional; anonymous
// requests get the zero Actor.
func viewer(c *fiber.Ctx) service.Actor {
	return actor(c)
}

func param(c *fiber.Ctx, name string) string {
	return strings.TrimSpace(c.Params(name))
}

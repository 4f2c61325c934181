package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userContextKey  = "currentUserID"
	tokenContextKey = "sessionToken"

	// SessionCookie carries the session token issued after code verification.
	SessionCookie = "session_token"
	// PendingCookie carries the pending token issued at login or reset start.
	PendingCookie = "pending_token"
)

// Authenticator resolves an active session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (uuid.UUID, error)
}

// SessionAuth accepts the session cookie or a Bearer header and loads the
// authenticated user ID into context. Errors go through the app error handler.
func SessionAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}

		userID, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userContextKey, userID)
		c.Locals(tokenContextKey, token)
		return c.Next()
	}
}

// SessionToken returns the session token from the Authorization header or
// the session cookie, in that order.
func SessionToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(tokenContextKey).(string); ok && v != "" {
		return v
	}
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookie)
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

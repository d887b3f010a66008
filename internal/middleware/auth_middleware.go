package middleware

import (
	"errors"
	"strings"

	"cafe-stock/internal/model"
	"cafe-stock/internal/service"
	"cafe-stock/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by RequireAuth.
const (
	LocalActor      = "actor"
	LocalPrivileges = "user_privileges"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(auth service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": problem})
		}

		user, err := auth.ValidateToken(c.UserContext(), tokenString)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrSessionExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		default:
			log.Error("validate token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		// Privileges come from the stored role so a role change applies
		// without a new token.
		c.Locals(LocalActor, service.Actor{
			UserID:   user.ID,
			TenantID: user.TenantID,
			Username: user.Username,
			Role:     user.Role,
		})
		c.Locals(LocalPrivileges, model.PrivilegesFor(user.Role))

		return c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to a
// token query parameter for websocket upgrades and slip links. The second
// result is the client-facing problem when no token is usable.
func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, ""
		}
		return "", "Missing authorization token"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "Invalid authorization format. Use: Bearer <token>"
	}
	return parts[1], ""
}

// ActorFrom returns the actor stored by RequireAuth.
func ActorFrom(c *fiber.Ctx) (service.Actor, bool) {
	actor, ok := c.Locals(LocalActor).(service.Actor)
	return actor, ok
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

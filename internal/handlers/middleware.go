package handlers

import (
	"net/http"
	"strings"

	"insurance-core/internal/auth"
	"insurance-core/internal/models"

	"github.com/gofiber/fiber/v3"
)

const actorKey = "actor"

// AuthMiddleware verifies the bearer token and stores the resulting Actor in
// the request context for the handlers.
func AuthMiddleware(jwtService *auth.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(http.StatusUnauthorized).JSON(
				models.CreateErrorResponse("UNAUTHORIZED", "Missing bearer token"))
		}

		claims, err := jwtService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(
				models.CreateErrorResponse("UNAUTHORIZED", "Invalid token"))
		}

		c.Locals(actorKey, claims.Actor())
		return c.Next()
	}
}

func actorFromCtx(c fiber.Ctx) models.Actor {
	if actor, ok := c.Locals(actorKey).(models.Actor); ok {
		return actor
	}
	return models.Actor{}
}

package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"unityhub/internal/services"
)

// AuthRequired is a Fiber middleware that rejects requests without a valid
// bearer token and stores the caller's user ID in the request locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Access token is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		userID, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// AuthOptional resolves the caller's user ID when a valid bearer token is
// present but lets anonymous requests through. Used on the public showcase
// listing so the response can mark which artifacts the viewer liked.
func AuthOptional(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parts := strings.SplitN(c.Get("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if userID, err := authService.ValidateToken(parts[1]); err == nil {
				c.Locals("user_id", userID)
			}
		}
		return c.Next()
	}
}

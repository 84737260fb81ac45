package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// internalError sends the generic 500 envelope. In development mode the
// underlying error is attached; in production it stays server-side.
func internalError(c *fiber.Ctx, err error, development bool) error {
	resp := fiber.Map{
		"success": false,
		"message": "Internal server error",
	}
	if development && err != nil {
		resp["error"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

// validationMessages flattens validator errors into a field-to-message map
// for the errors envelope field.
func validationMessages(err error) map[string]string {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}

// currentUserID reads the authenticated user ID stored by the auth middleware.
func currentUserID(c *fiber.Ctx) (primitive.ObjectID, bool) {
	userID, ok := c.Locals("user_id").(primitive.ObjectID)
	return userID, ok
}

package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"unityhub/internal/services"
)

// AuthHandler handles HTTP requests for registration, login and profiles.
type AuthHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
	validate       *validator.Validate
	development    bool
}

// NewAuthHandler creates a new AuthHandler. development controls whether
// internal error detail is echoed to clients.
func NewAuthHandler(authService *services.AuthService, profileService *services.ProfileService, development bool) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		validate:       validator.New(),
		development:    development,
	}
}

// RegisterRoutes registers the auth routes. requireAuth guards the
// account and profile endpoints; register and login stay public.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", requireAuth, h.HandleCurrentUser)
	authRoutes.Get("/profile", requireAuth, h.HandleGetProfile)
	authRoutes.Post("/profile", requireAuth, h.HandleUpdateProfile)
	authRoutes.Put("/profile", requireAuth, h.HandleUpdateProfile)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration and issues a token.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	user, token, err := h.authService.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "User already exists with this email",
			})
		}
		log.Printf("Error registering user: %v", err)
		return internalError(c, err, h.development)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a fresh token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCreds) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid email or password",
			})
		}
		log.Printf("Error during login for %s: %v", req.Email, err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"user":  user,
			"token": token,
		},
	})
}

// HandleCurrentUser returns the authenticated user's account.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	user, err := h.authService.CurrentUser(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}
		log.Printf("Error getting current user: %v", err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// HandleGetProfile returns the authenticated user's profile.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	profile, err := h.profileService.Get(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Profile not found",
			})
		}
		log.Printf("Error getting profile: %v", err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}

// HandleUpdateProfile creates the profile on first update, otherwise updates
// the provided fields.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing profile request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	profile, created, err := h.profileService.Upsert(c.UserContext(), userID, input)
	if err != nil {
		log.Printf("Error upserting profile: %v", err)
		return internalError(c, err, h.development)
	}

	status := fiber.StatusOK
	message := "Profile updated successfully"
	if created {
		status = fiber.StatusCreated
		message = "Profile created successfully"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    profile,
	})
}

package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/services"
)

// ArtifactHandler handles HTTP requests for the artifact lifecycle and the
// social operations on published artifacts.
type ArtifactHandler struct {
	artifactService *services.ArtifactService
	validate        *validator.Validate
	development     bool
}

// NewArtifactHandler creates a new ArtifactHandler. development controls
// whether internal error detail is echoed to clients.
func NewArtifactHandler(artifactService *services.ArtifactService, development bool) *ArtifactHandler {
	return &ArtifactHandler{
		artifactService: artifactService,
		validate:        validator.New(),
		development:     development,
	}
}

// RegisterRoutes registers the artifact routes. The showcase listing uses
// optional auth so anonymous viewers can browse; everything else requires a
// token.
func (h *ArtifactHandler) RegisterRoutes(router fiber.Router, requireAuth, optionalAuth fiber.Handler) {
	artifactRoutes := router.Group("/artifacts")
	artifactRoutes.Get("/published", optionalAuth, h.HandleListPublished)
	artifactRoutes.Get("/my-artifacts", requireAuth, h.HandleListMine)
	artifactRoutes.Post("/", requireAuth, h.HandleCreate)
	artifactRoutes.Post("/:artifactId/generate", requireAuth, h.HandleGenerate)
	artifactRoutes.Post("/:artifactId/publish", requireAuth, h.HandlePublish)
	artifactRoutes.Post("/:artifactId/like", requireAuth, h.HandleToggleLike)
	artifactRoutes.Post("/:artifactId/comments", requireAuth, h.HandleAddComment)
}

// HandleCreate creates a new draft artifact.
func (h *ArtifactHandler) HandleCreate(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	var input services.ArtifactInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing artifact request body: %v", err)
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

	artifact, err := h.artifactService.Create(c.UserContext(), userID, input)
	if err != nil {
		log.Printf("Error creating artifact: %v", err)
		return internalError(c, err, h.development)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Artifact created successfully",
		"data":    artifact,
	})
}

// HandleGenerate renders the artifact's expression into an image.
func (h *ArtifactHandler) HandleGenerate(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	artifactID := c.Params("artifactId")
	artifact, err := h.artifactService.Generate(c.UserContext(), userID, artifactID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrArtifactNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Artifact not found or access denied",
			})
		case errors.Is(err, services.ErrAlreadyGenerated):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Artifact image already generated",
			})
		case errors.Is(err, services.ErrRenderFailed):
			// Render failures carry an actionable message (for timeouts, a
			// hint to simplify the expression); surface it as-is.
			log.Printf("Error generating artifact %s: %v", artifactID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to generate artifact",
				"error":   err.Error(),
			})
		}
		log.Printf("Error generating artifact %s: %v", artifactID, err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Artifact generated successfully",
		"data": fiber.Map{
			"artifactId": artifact.ArtifactID,
			"imageUrl":   artifact.ImageURL,
			"expression": artifact.Expression,
			"format":     artifact.Format,
		},
	})
}

// HandlePublish flips a generated artifact to published.
func (h *ArtifactHandler) HandlePublish(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	artifactID := c.Params("artifactId")
	if err := h.artifactService.Publish(c.UserContext(), userID, artifactID); err != nil {
		switch {
		case errors.Is(err, services.ErrArtifactNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Artifact not found or access denied",
			})
		case errors.Is(err, services.ErrNoImage):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Cannot publish artifact without generated image",
			})
		case errors.Is(err, services.ErrAlreadyPublished):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Artifact is already published",
			})
		}
		log.Printf("Error publishing artifact %s: %v", artifactID, err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Artifact published successfully",
	})
}

// HandleListMine returns all of the caller's artifacts, newest-updated first.
func (h *ArtifactHandler) HandleListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	artifacts, err := h.artifactService.ListMine(c.UserContext(), userID)
	if err != nil {
		log.Printf("Error listing artifacts: %v", err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    artifacts,
	})
}

// HandleListPublished returns a page of the public showcase.
func (h *ArtifactHandler) HandleListPublished(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 12)

	var viewerID *primitive.ObjectID
	if userID, ok := currentUserID(c); ok {
		viewerID = &userID
	}

	artifacts, hasMore, err := h.artifactService.ListPublished(c.UserContext(), page, limit, viewerID)
	if err != nil {
		log.Printf("Error listing published artifacts: %v", err)
		return internalError(c, err, h.development)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    artifacts,
		"pagination": fiber.Map{
			"page":    page,
			"limit":   limit,
			"hasMore": hasMore,
		},
	})
}

// HandleToggleLike flips the caller's like on a published artifact.
func (h *ArtifactHandler) HandleToggleLike(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	artifactID := c.Params("artifactId")
	isLiked, likesCount, err := h.artifactService.ToggleLike(c.UserContext(), userID, artifactID)
	if err != nil {
		if errors.Is(err, services.ErrNotPublished) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Published artifact not found",
			})
		}
		log.Printf("Error toggling like on %s: %v", artifactID, err)
		return internalError(c, err, h.development)
	}

	message := "Like removed"
	if isLiked {
		message = "Like added"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data": fiber.Map{
			"isLiked":    isLiked,
			"likesCount": likesCount,
		},
	})
}

// CommentRequest represents the request body for adding a comment.
type CommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=500"`
}

// HandleAddComment appends a comment to a published artifact.
func (h *ArtifactHandler) HandleAddComment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token is required",
		})
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing comment request body: %v", err)
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

	artifactID := c.Params("artifactId")
	comment, err := h.artifactService.AddComment(c.UserContext(), userID, artifactID, req.Comment)
	if err != nil {
		if errors.Is(err, services.ErrNotPublished) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Published artifact not found",
			})
		}
		log.Printf("Error adding comment to %s: %v", artifactID, err)
		return internalError(c, err, h.development)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Comment added successfully",
		"data":    comment,
	})
}

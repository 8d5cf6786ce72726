package handlers

import (
	"errors"
	"fmt"
	"log"

	"pustaka/internal/middleware"
	"pustaka/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// LibraryHandler handles HTTP requests for a user's library and sharing.
type LibraryHandler struct {
	library  *services.LibraryService
	validate *validator.Validate
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(library *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		library:  library,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the library routes with the Fiber app.
func (h *LibraryHandler) RegisterRoutes(router fiber.Router) {
	libraryRoutes := router.Group("/library")
	libraryRoutes.Get("/", h.HandleGetLibrary)
	libraryRoutes.Post("/share", h.HandleShare)
	libraryRoutes.Post("/reclaim", h.HandleReclaim)
}

// HandleGetLibrary returns the caller's owned books plus shares in both
// directions.
func (h *LibraryHandler) HandleGetLibrary(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	view, err := h.library.Library(userID)
	if err != nil {
		log.Printf("Error loading library for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load library",
			"error":   err.Error(),
		})
	}
	return c.JSON(view)
}

// ShareRequest asks to give one copy of an owned e-book to another user.
type ShareRequest struct {
	EbookID string `json:"ebook_id" validate:"required"`
	ToEmail string `json:"to_email" validate:"required,email"`
}

// HandleShare gives one copy of an owned e-book to the user behind to_email.
func (h *LibraryHandler) HandleShare(c *fiber.Ctx) error {
	var req ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	userID := middleware.UserID(c)
	if err := h.library.ShareEbook(userID, req.ToEmail, req.EbookID); err != nil {
		log.Printf("Error sharing ebook %s from user %s: %v", req.EbookID, userID, err)
		status := fiber.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, services.ErrAlreadyShared):
			status = fiber.StatusConflict
		case errors.Is(err, services.ErrSelfShare), errors.Is(err, services.ErrInsufficientCopies):
			// 400
		default:
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Ebook shared",
	})
}

// ReclaimRequest asks to take back a previously shared copy.
type ReclaimRequest struct {
	EbookID  string `json:"ebook_id" validate:"required"`
	ToUserID string `json:"to_user_id" validate:"required"`
}

// HandleReclaim takes back a previously shared copy.
func (h *LibraryHandler) HandleReclaim(c *fiber.Ctx) error {
	var req ReclaimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	userID := middleware.UserID(c)
	if err := h.library.ReclaimEbook(userID, req.ToUserID, req.EbookID); err != nil {
		log.Printf("Error reclaiming ebook %s for user %s: %v", req.EbookID, userID, err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, services.ErrNotShared) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Ebook reclaimed",
	})
}

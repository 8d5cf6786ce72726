package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"pustaka/internal/models"
	"pustaka/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// EbookHandler handles HTTP requests for the e-book catalog: public browsing
// plus the admin back office (CRUD and asset uploads).
type EbookHandler struct {
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewEbookHandler creates a new EbookHandler.
func NewEbookHandler(catalog *services.CatalogService) *EbookHandler {
	return &EbookHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *EbookHandler) RegisterRoutes(router fiber.Router) {
	ebookRoutes := router.Group("/ebooks")
	ebookRoutes.Get("/", h.HandleListEbooks)
	ebookRoutes.Get("/:slug", h.HandleGetEbookBySlug)
}

// RegisterAdminRoutes registers the back-office catalog routes.
func (h *EbookHandler) RegisterAdminRoutes(router fiber.Router) {
	ebookRoutes := router.Group("/ebooks")
	ebookRoutes.Post("/", h.HandleCreateEbook)
	ebookRoutes.Put("/:id", h.HandleUpdateEbook)
	ebookRoutes.Delete("/:id", h.HandleDeleteEbook)
	ebookRoutes.Post("/:id/cover", h.HandleUploadCover)
	ebookRoutes.Post("/:id/file", h.HandleUploadFile)
}

// HandleListEbooks retrieves all catalog listings.
func (h *EbookHandler) HandleListEbooks(c *fiber.Ctx) error {
	ebooks, err := h.catalog.ListEbooks()
	if err != nil {
		log.Printf("Error getting all ebooks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve ebooks",
			"error":   err.Error(),
		})
	}
	return c.JSON(ebooks)
}

// HandleGetEbookBySlug retrieves a single listing by its slug.
func (h *EbookHandler) HandleGetEbookBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	ebook, err := h.catalog.GetEbookBySlug(slug)
	if err != nil {
		log.Printf("Error getting ebook by slug %s: %v", slug, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Ebook with slug %s not found", slug),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve ebook",
			"error":   err.Error(),
		})
	}
	return c.JSON(ebook)
}

// HandleCreateEbook creates a new catalog listing.
func (h *EbookHandler) HandleCreateEbook(c *fiber.Ctx) error {
	var ebook models.Ebook
	if err := c.BodyParser(&ebook); err != nil {
		log.Printf("Error parsing create ebook request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(ebook); err != nil {
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

	if err := h.catalog.CreateEbook(&ebook); err != nil {
		log.Printf("Error creating ebook: %v", err)
		if strings.Contains(err.Error(), "already in use") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Could not create ebook",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create ebook",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(ebook)
}

// HandleUpdateEbook updates an existing catalog listing.
func (h *EbookHandler) HandleUpdateEbook(c *fiber.Ctx) error {
	var ebook models.Ebook
	if err := c.BodyParser(&ebook); err != nil {
		log.Printf("Error parsing update ebook request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	ebook.ID = c.Params("id")

	if err := h.validate.Struct(ebook); err != nil {
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

	if err := h.catalog.UpdateEbook(&ebook); err != nil {
		log.Printf("Error updating ebook %s: %v", ebook.ID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Ebook with ID %s not found", ebook.ID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update ebook",
			"error":   err.Error(),
		})
	}
	return c.JSON(ebook)
}

// HandleDeleteEbook removes a catalog listing and its stored assets.
func (h *EbookHandler) HandleDeleteEbook(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalog.DeleteEbook(c.UserContext(), id); err != nil {
		log.Printf("Error deleting ebook %s: %v", id, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Ebook with ID %s not found", id),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete ebook",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Ebook %s deleted successfully", id),
	})
}

// HandleUploadCover attaches a cover image to a listing.
func (h *EbookHandler) HandleUploadCover(c *fiber.Ctx) error {
	return h.handleUpload(c, h.catalog.AttachCover)
}

// HandleUploadFile attaches the e-book file itself to a listing.
func (h *EbookHandler) HandleUploadFile(c *fiber.Ctx) error {
	return h.handleUpload(c, h.catalog.AttachFile)
}

func (h *EbookHandler) handleUpload(c *fiber.Ctx, attach func(ctx context.Context, id, filename string, data []byte, contentType string) (*models.Ebook, error)) error {
	id := c.Params("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A 'file' form field is required",
			"error":   err.Error(),
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not open uploaded file",
			"error":   err.Error(),
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}

	ebook, err := attach(c.UserContext(), id, fileHeader.Filename, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("Error attaching asset to ebook %s: %v", id, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Ebook with ID %s not found", id),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store asset",
			"error":   err.Error(),
		})
	}
	return c.JSON(ebook)
}

package handlers

import (
	"fmt"
	"log"

	"pustaka/internal/middleware"
	"pustaka/internal/models"
	"pustaka/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	cart     *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{
		cart:     cart,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:ebookId", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:ebookId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the caller's current cart lines and total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	return c.JSON(fiber.Map{
		"items": h.cart.Items(userID),
		"total": h.cart.Total(userID),
	})
}

// HandleAddItem inserts a new line into the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var item models.CartItem
	if err := c.BodyParser(&item); err != nil {
		log.Printf("Error parsing cart item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(item); err != nil {
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
	if err := h.cart.AddItem(userID, item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"items": h.cart.Items(userID),
		"total": h.cart.Total(userID),
	})
}

// HandleUpdateQuantity sets the quantity of an existing cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	userID := middleware.UserID(c)
	ebookID := c.Params("ebookId")
	if err := h.cart.UpdateQuantity(userID, ebookID, req.Quantity); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not update cart line",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"items": h.cart.Items(userID),
		"total": h.cart.Total(userID),
	})
}

// HandleRemoveItem deletes a line from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ebookID := c.Params("ebookId")
	if err := h.cart.RemoveItem(userID, ebookID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not remove cart line",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"items": h.cart.Items(userID),
		"total": h.cart.Total(userID),
	})
}

// HandleClearCart empties the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	h.cart.Clear(userID)
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}

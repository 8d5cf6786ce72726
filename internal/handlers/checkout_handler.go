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

// CheckoutHandler handles HTTP requests for the order settlement flow.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	cart     *services.CartService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, cart *services.CartService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		cart:     cart,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the authenticated checkout routes.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/order", h.HandleCreateOrder)
	checkoutRoutes.Post("/verify", h.HandleVerifyPayment)
	router.Get("/orders", h.HandleListOrders)
}

// RegisterWebhookRoutes registers the unauthenticated gateway callback. The
// route is protected by its HMAC signature rather than a JWT.
func (h *CheckoutHandler) RegisterWebhookRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// CreateOrderRequest carries the client-computed total, which the server
// re-verifies against catalog prices. The items themselves come from the
// server-held cart.
type CreateOrderRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// HandleCreateOrder starts settlement phase one for the caller's cart.
func (h *CheckoutHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
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
	items := h.cart.Items(userID)

	result, err := h.checkout.CreateOrder(c.UserContext(), userID, req.Amount, items)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", userID, err)
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Your cart is empty",
			})
		case errors.Is(err, services.ErrAmountMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart total does not match current prices; refresh and retry",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not create order",
				"error":   err.Error(),
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// VerifyPaymentRequest is the payment widget's success callback payload.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string `json:"gateway_signature" validate:"required"`
	OrderID          string `json:"order_id" validate:"required"`
}

// HandleVerifyPayment runs settlement phase two. The cart is cleared only
// after verification succeeds.
func (h *CheckoutHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
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
	err := h.checkout.VerifyPayment(userID, req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature, req.OrderID)
	if err != nil {
		log.Printf("Error verifying payment for order %s: %v", req.OrderID, err)
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			// Terminal for the order: the purchase is not complete and no
			// ownership was granted.
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid payment signature",
			})
		case errors.Is(err, services.ErrNotYourOrder):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Order belongs to another user",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Could not verify payment",
				"error":   err.Error(),
			})
		}
	}

	h.cart.Clear(userID)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment verified",
	})
}

// HandleWebhook settles an order from the gateway's server-to-server
// notification, independent of the buyer's browser.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Razorpay-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing webhook signature",
		})
	}

	if err := h.checkout.HandleWebhook(c.Body(), signature); err != nil {
		log.Printf("Error handling payment webhook: %v", err)
		if errors.Is(err, services.ErrInvalidSignature) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid webhook signature",
			})
		}
		// Non-2xx makes the gateway retry the delivery later.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process webhook",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleListOrders returns the caller's order history.
func (h *CheckoutHandler) HandleListOrders(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	orders, err := h.checkout.ListOrders(userID)
	if err != nil {
		log.Printf("Error listing orders for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

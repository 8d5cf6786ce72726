package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"pustaka/internal/models"
	"pustaka/internal/repositories"
	"pustaka/pkg/razorpay"

	"github.com/google/uuid"
)

// Checkout failure reasons surfaced to callers as typed results, never as
// unhandled panics across the service boundary.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrAmountMismatch   = errors.New("submitted total does not match catalog prices")
	ErrNotYourOrder     = errors.New("order belongs to another user")
	ErrInvalidSignature = errors.New("invalid payment signature")
)

// amountTolerance absorbs float rounding between client and server totals.
const amountTolerance = 0.01

// PaymentGateway is the slice of the gateway client the checkout flow uses.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error)
}

// EventPublisher is the slice of the message-queue client the services use.
type EventPublisher interface {
	PublishEvent(eventType string, data interface{}) error
}

// CheckoutService orchestrates the two-phase purchase-to-ownership
// settlement: create a gateway order, then verify the payment callback (or
// webhook) and grant ownership atomically.
type CheckoutService struct {
	ebookRepo     repositories.EbookRepository
	orderRepo     repositories.OrderRepository
	libraryRepo   repositories.LibraryRepository
	gateway       PaymentGateway
	events        EventPublisher // nil disables event publishing
	keySecret     string
	webhookSecret string
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	ebookRepo repositories.EbookRepository,
	orderRepo repositories.OrderRepository,
	libraryRepo repositories.LibraryRepository,
	gateway PaymentGateway,
	events EventPublisher,
	keySecret, webhookSecret string,
) *CheckoutService {
	return &CheckoutService{
		ebookRepo:     ebookRepo,
		orderRepo:     orderRepo,
		libraryRepo:   libraryRepo,
		gateway:       gateway,
		events:        events,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// CheckoutResult is returned to the client to drive the payment widget.
type CheckoutResult struct {
	GatewayOrderID string  `json:"gateway_order_id"`
	OrderID        string  `json:"order_id"`
	Amount         float64 `json:"amount"`
}

// CreateOrder is phase one of settlement. The total is recomputed from
// authoritative catalog prices rather than trusted from the client; the
// submitted total must match within a rounding tolerance. The local PENDING
// order plus its item snapshots are only written after the gateway call
// succeeds, so a gateway failure leaves no local state behind.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID string, clientTotal float64, items []models.CartItem) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var total float64
	snapshots := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("invalid quantity %d for ebook %s", item.Quantity, item.EbookID)
		}
		ebook, err := s.ebookRepo.GetByID(item.EbookID)
		if err != nil {
			return nil, fmt.Errorf("ebook %s not found: %w", item.EbookID, err)
		}
		price := ebook.SalePrice()
		snapshots = append(snapshots, models.OrderItem{
			EbookID:  ebook.ID,
			Price:    price,
			Quantity: item.Quantity,
		})
		total += price * float64(item.Quantity)
	}

	if math.Abs(total-clientTotal) > amountTolerance {
		return nil, ErrAmountMismatch
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	gatewayOrder, err := s.gateway.CreateOrder(ctx, int64(math.Round(total*100)), "INR", receipt)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Amount:         total,
		TotalAmount:    total,
		TaxAmount:      0,
		Status:         models.OrderPending,
		GatewayOrderID: gatewayOrder.ID,
		OrderItems:     snapshots,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	return &CheckoutResult{
		GatewayOrderID: gatewayOrder.ID,
		OrderID:        order.ID,
		Amount:         total,
	}, nil
}

// VerifyPayment is phase two of settlement, driven by the payment widget
// callback. It recomputes the HMAC signature over orderID|paymentID; a
// mismatch marks the order FAILED without storing the payment ID. A match
// settles the order: the PAID transition and every ledger upsert commit in
// one transaction. Re-delivery for an already-PAID order is a no-op success.
func (s *CheckoutService) VerifyPayment(userID, gatewayOrderID, gatewayPaymentID, gatewaySignature, orderID string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return ErrNotYourOrder
	}

	if !razorpay.VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, gatewaySignature, s.keySecret) {
		if err := s.orderRepo.MarkFailed(orderID); err != nil && !errors.Is(err, repositories.ErrOrderClosed) {
			// An already-PAID order stays PAID; everything else is logged
			// and the signature error still wins.
			log.Printf("Failed to mark order %s failed: %v", orderID, err)
		}
		return ErrInvalidSignature
	}

	return s.settle(order, gatewayPaymentID, gatewaySignature)
}

// webhookEvent is the subset of the gateway's webhook payload the service
// reads.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook is the server-to-server second path into settlement, keyed
// by the gateway order ID, so settlement does not depend solely on the
// buyer's browser round-tripping the verification call. The body HMAC is
// checked against the webhook secret; settlement itself is idempotent.
func (s *CheckoutService) HandleWebhook(body []byte, headerSignature string) error {
	if !razorpay.VerifyWebhookSignature(body, headerSignature, s.webhookSecret) {
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if event.Event != "payment.captured" {
		return nil // Not a settlement trigger; acknowledge and ignore.
	}

	entity := event.Payload.Payment.Entity
	order, err := s.orderRepo.GetByGatewayOrderID(entity.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order for webhook: %w", err)
	}

	// Webhook deliveries carry no per-payment widget signature, so the
	// order is settled with the payment ID alone.
	return s.settle(order, entity.ID, "")
}

// settle converts a verified payment into ownership records and publishes
// the settlement event. ErrAlreadySettled collapses to success so both
// settlement paths stay idempotent.
func (s *CheckoutService) settle(order *models.Order, gatewayPaymentID, gatewaySignature string) error {
	err := s.libraryRepo.Settle(order, gatewayPaymentID, gatewaySignature)
	if errors.Is(err, repositories.ErrAlreadySettled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("settlement failed for order %s: %w", order.ID, err)
	}

	if s.events != nil {
		payload := map[string]interface{}{
			"order_id":           order.ID,
			"user_id":            order.UserID,
			"gateway_order_id":   order.GatewayOrderID,
			"gateway_payment_id": gatewayPaymentID,
			"total":              order.TotalAmount,
		}
		if err := s.events.PublishEvent("order.paid", payload); err != nil {
			log.Printf("Warning: Failed to publish order paid event for order %s: %v", order.ID, err)
		}
	}
	return nil
}

// ListOrders returns the caller's order history.
func (s *CheckoutService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

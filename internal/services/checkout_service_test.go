package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"pustaka/internal/models"
	"pustaka/internal/repositories"
	"pustaka/internal/services"
	"pustaka/pkg/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testKeySecret     = "s3cr3t"
	testWebhookSecret = "test_webhook_secret"
)

// MockPaymentGateway is a mock implementation of services.PaymentGateway.
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error) {
	args := m.Called(amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Order), args.Error(1)
}

// recordingPublisher captures published event types for assertions.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishEvent(eventType string, data interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

type checkoutFixture struct {
	ebooks  *repositories.MockEbookRepository
	orders  *repositories.MockOrderRepository
	library *repositories.MockLibraryRepository
	gateway *MockPaymentGateway
	events  *recordingPublisher
	service *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	ebooks := repositories.NewMockEbookRepository()
	assert.NoError(t, ebooks.Create(&models.Ebook{
		ID:              "ebook-1",
		Title:           "The Go Programming Language",
		Slug:            "the-go-programming-language",
		Price:           500,
		DiscountedPrice: 299,
		Active:          true,
	}))

	orders := repositories.NewMockOrderRepository()
	library := repositories.NewMockLibraryRepository(orders)
	gateway := new(MockPaymentGateway)
	events := &recordingPublisher{}

	return &checkoutFixture{
		ebooks:  ebooks,
		orders:  orders,
		library: library,
		gateway: gateway,
		events:  events,
		service: services.NewCheckoutService(ebooks, orders, library, gateway, events, testKeySecret, testWebhookSecret),
	}
}

// pendingOrder persists a PENDING order for ebook-1 directly, as if phase one
// had completed against the given gateway order ID.
func (f *checkoutFixture) pendingOrder(t *testing.T, userID, gatewayOrderID string, quantity int) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:         userID,
		Amount:         299 * float64(quantity),
		TotalAmount:    299 * float64(quantity),
		Status:         models.OrderPending,
		GatewayOrderID: gatewayOrderID,
		OrderItems: []models.OrderItem{
			{EbookID: "ebook-1", Price: 299, Quantity: quantity},
		},
	}
	assert.NoError(t, f.orders.Create(order))
	return order
}

func TestCheckoutService_CreateOrder(t *testing.T) {
	f := newCheckoutFixture(t)

	// 2 x 299.00, charged in paise.
	f.gateway.On("CreateOrder", int64(59800), "INR").
		Return(&razorpay.Order{ID: "order_gw_1", Amount: 59800, Currency: "INR"}, nil).Once()

	result, err := f.service.CreateOrder(context.Background(), "user-1", 598, []models.CartItem{
		{EbookID: "ebook-1", Quantity: 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, "order_gw_1", result.GatewayOrderID)
	assert.InDelta(t, 598.0, result.Amount, 0.001)

	order, err := f.orders.GetByID(result.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
	assert.Len(t, order.OrderItems, 1)
	// The item snapshot carries the sale price at purchase time.
	assert.InDelta(t, 299.0, order.OrderItems[0].Price, 0.001)
	assert.Equal(t, 2, order.OrderItems[0].Quantity)

	f.gateway.AssertExpectations(t)
}

func TestCheckoutService_CreateOrder_AmountMismatch(t *testing.T) {
	f := newCheckoutFixture(t)

	// Client claims the undiscounted price; the recomputed total wins.
	_, err := f.service.CreateOrder(context.Background(), "user-1", 500, []models.CartItem{
		{EbookID: "ebook-1", Quantity: 1},
	})
	assert.ErrorIs(t, err, services.ErrAmountMismatch)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)

	count, _ := f.orders.Count()
	assert.Zero(t, count)
}

func TestCheckoutService_CreateOrder_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.CreateOrder(context.Background(), "user-1", 0, nil)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestCheckoutService_CreateOrder_UnknownEbook(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.CreateOrder(context.Background(), "user-1", 299, []models.CartItem{
		{EbookID: "ebook-missing", Quantity: 1},
	})
	assert.Error(t, err)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCheckoutService_CreateOrder_GatewayFailure(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("CreateOrder", int64(29900), "INR").
		Return(nil, fmt.Errorf("gateway unavailable")).Once()

	_, err := f.service.CreateOrder(context.Background(), "user-1", 299, []models.CartItem{
		{EbookID: "ebook-1", Quantity: 1},
	})
	assert.Error(t, err)

	// A gateway failure leaves no local order behind.
	count, _ := f.orders.Count()
	assert.Zero(t, count)
}

func TestCheckoutService_VerifyPayment_Success(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 2)

	sig := razorpay.Signature("order_gw_1", "pay_1", testKeySecret)
	err := f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", sig, order.ID)
	assert.NoError(t, err)

	settled, err := f.orders.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPaid, settled.Status)
	assert.Equal(t, "pay_1", settled.GatewayPaymentID)

	owned, err := f.library.GetOwned("user-1", "ebook-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, owned.Quantity)
	assert.Equal(t, 2, owned.Available)

	assert.Contains(t, f.events.events, "order.paid")
}

func TestCheckoutService_VerifyPayment_Idempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 2)

	sig := razorpay.Signature("order_gw_1", "pay_1", testKeySecret)
	assert.NoError(t, f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", sig, order.ID))

	// Re-delivering the same verification succeeds without granting again.
	assert.NoError(t, f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", sig, order.ID))

	owned, err := f.library.GetOwned("user-1", "ebook-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, owned.Quantity)
	assert.Equal(t, 2, owned.Available)
}

func TestCheckoutService_VerifyPayment_RepeatPurchaseAccumulates(t *testing.T) {
	f := newCheckoutFixture(t)

	first := f.pendingOrder(t, "user-1", "order_gw_1", 2)
	sig := razorpay.Signature("order_gw_1", "pay_1", testKeySecret)
	assert.NoError(t, f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", sig, first.ID))

	second := f.pendingOrder(t, "user-1", "order_gw_2", 1)
	sig = razorpay.Signature("order_gw_2", "pay_2", testKeySecret)
	assert.NoError(t, f.service.VerifyPayment("user-1", "order_gw_2", "pay_2", sig, second.ID))

	owned, err := f.library.GetOwned("user-1", "ebook-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, owned.Quantity)
	assert.Equal(t, 3, owned.Available)
}

func TestCheckoutService_VerifyPayment_InvalidSignature(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 1)

	err := f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", "bad-signature", order.ID)
	assert.ErrorIs(t, err, services.ErrInvalidSignature)

	failed, err := f.orders.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderFailed, failed.Status)
	// The payment ID is never stored for a rejected signature.
	assert.Empty(t, failed.GatewayPaymentID)

	_, err = f.library.GetOwned("user-1", "ebook-1")
	assert.Error(t, err)
}

func TestCheckoutService_VerifyPayment_AfterFailedIsClosed(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 1)

	err := f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", "bad-signature", order.ID)
	assert.ErrorIs(t, err, services.ErrInvalidSignature)

	// A FAILED order never transitions to PAID, even with a valid signature.
	sig := razorpay.Signature("order_gw_1", "pay_1", testKeySecret)
	err = f.service.VerifyPayment("user-1", "order_gw_1", "pay_1", sig, order.ID)
	assert.ErrorIs(t, err, repositories.ErrOrderClosed)

	_, err = f.library.GetOwned("user-1", "ebook-1")
	assert.Error(t, err)
}

func TestCheckoutService_VerifyPayment_WrongUser(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 1)

	sig := razorpay.Signature("order_gw_1", "pay_1", testKeySecret)
	err := f.service.VerifyPayment("user-2", "order_gw_1", "pay_1", sig, order.ID)
	assert.ErrorIs(t, err, services.ErrNotYourOrder)

	// The order is untouched.
	loaded, _ := f.orders.GetByID(order.ID)
	assert.Equal(t, models.OrderPending, loaded.Status)
}

func signWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedWebhookBody(paymentID, gatewayOrderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q}}}}`,
		paymentID, gatewayOrderID,
	))
}

func TestCheckoutService_HandleWebhook_Settles(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 2)

	body := capturedWebhookBody("pay_wh_1", "order_gw_1")
	err := f.service.HandleWebhook(body, signWebhookBody(body, testWebhookSecret))
	assert.NoError(t, err)

	settled, err := f.orders.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPaid, settled.Status)
	assert.Equal(t, "pay_wh_1", settled.GatewayPaymentID)

	owned, err := f.library.GetOwned("user-1", "ebook-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, owned.Quantity)

	// Gateways redeliver webhooks; the second delivery is a no-op success.
	assert.NoError(t, f.service.HandleWebhook(body, signWebhookBody(body, testWebhookSecret)))
	owned, _ = f.library.GetOwned("user-1", "ebook-1")
	assert.Equal(t, 2, owned.Quantity)
}

func TestCheckoutService_HandleWebhook_InvalidSignature(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 1)

	body := capturedWebhookBody("pay_wh_1", "order_gw_1")
	err := f.service.HandleWebhook(body, signWebhookBody(body, "wrong-secret"))
	assert.ErrorIs(t, err, services.ErrInvalidSignature)

	loaded, _ := f.orders.GetByID(order.ID)
	assert.Equal(t, models.OrderPending, loaded.Status)
}

func TestCheckoutService_HandleWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t, "user-1", "order_gw_1", 1)

	body := []byte(`{"event":"payment.authorized","payload":{"payment":{"entity":{"id":"pay_wh_1","order_id":"order_gw_1"}}}}`)
	err := f.service.HandleWebhook(body, signWebhookBody(body, testWebhookSecret))
	assert.NoError(t, err)

	loaded, _ := f.orders.GetByID(order.ID)
	assert.Equal(t, models.OrderPending, loaded.Status)
}

func TestCheckoutService_ListOrders(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pendingOrder(t, "user-1", "order_gw_1", 1)
	f.pendingOrder(t, "user-1", "order_gw_2", 1)
	f.pendingOrder(t, "user-2", "order_gw_3", 1)

	orders, err := f.service.ListOrders("user-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
}

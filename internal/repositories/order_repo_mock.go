package repositories

import (
	"fmt"
	"sync"
	"time"

	"pustaka/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	for i := range order.OrderItems {
		order.OrderItems[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its local ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// GetByGatewayOrderID returns an order by the payment gateway's order ID.
func (r *MockOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.GatewayOrderID == gatewayOrderID {
			o := order
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order with gateway order ID %s not found", gatewayOrderID)
}

// ListByUser returns all orders belonging to a user.
func (r *MockOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			list = append(list, order)
		}
	}
	return list, nil
}

// MarkFailed moves a PENDING order to FAILED.
func (r *MockOrderRepository) MarkFailed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found", id)
	}
	switch order.Status {
	case models.OrderPaid:
		return ErrAlreadySettled
	case models.OrderFailed:
		return ErrOrderClosed
	}
	order.Status = models.OrderFailed
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// settlePaid is the PENDING -> PAID transition used by MockLibraryRepository
// so that settlement observes the same guards as the real implementation.
func (r *MockOrderRepository) settlePaid(id, gatewayPaymentID, gatewaySignature string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found", id)
	}
	switch order.Status {
	case models.OrderPaid:
		return ErrAlreadySettled
	case models.OrderFailed:
		return ErrOrderClosed
	}
	order.Status = models.OrderPaid
	order.GatewayPaymentID = gatewayPaymentID
	order.GatewaySignature = gatewaySignature
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// Count returns the number of orders held.
func (r *MockOrderRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

// CountByStatus returns the number of orders per settlement status.
func (r *MockOrderRepository) CountByStatus() (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, order := range r.orders {
		counts[string(order.Status)]++
	}
	return counts, nil
}

// Revenue returns the sum of total amounts over PAID orders.
func (r *MockOrderRepository) Revenue() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var revenue float64
	for _, order := range r.orders {
		if order.Status == models.OrderPaid {
			revenue += order.TotalAmount
		}
	}
	return revenue, nil
}

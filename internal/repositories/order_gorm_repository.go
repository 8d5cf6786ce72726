package repositories

import (
	"fmt"
	"pustaka/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order together with its item snapshots in a single
// create call (GORM inserts the association rows with the parent).
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	for i := range order.OrderItems {
		order.OrderItems[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its items by local ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("OrderItems").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByGatewayOrderID retrieves an order with its items by the payment
// gateway's order ID. Used by the webhook settlement path.
func (r *GORMOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("OrderItems").First(&order, "gateway_order_id = ?", gatewayOrderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with gateway order ID %s not found", gatewayOrderID)
		}
		return nil, fmt.Errorf("failed to get order by gateway order ID %s: %w", gatewayOrderID, err)
	}
	return &order, nil
}

// ListByUser retrieves all orders belonging to a user, newest first.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// MarkFailed moves a PENDING order to FAILED. The gateway payment ID is
// deliberately not stored on failure. Orders already out of PENDING are left
// untouched and reported via ErrAlreadySettled / ErrOrderClosed.
func (r *GORMOrderRepository) MarkFailed(id string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderPending).
		Update("status", models.OrderFailed)
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %s failed: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.terminalStateError(r.db, id)
	}
	return nil
}

// terminalStateError reports why a guarded status update matched no rows.
func (r *GORMOrderRepository) terminalStateError(tx *gorm.DB, id string) error {
	var order models.Order
	if err := tx.Select("status").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("order with ID %s not found", id)
		}
		return fmt.Errorf("failed to read order %s: %w", id, err)
	}
	switch order.Status {
	case models.OrderPaid:
		return ErrAlreadySettled
	case models.OrderFailed:
		return ErrOrderClosed
	default:
		return fmt.Errorf("order %s in unexpected status %s", id, order.Status)
	}
}

// Count returns the total number of orders.
func (r *GORMOrderRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of orders per settlement status.
func (r *GORMOrderRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Revenue returns the sum of total amounts over PAID orders.
func (r *GORMOrderRepository) Revenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", models.OrderPaid).
		Select("coalesce(sum(total_amount), 0)").
		Scan(&revenue).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}

package models

import "gorm.io/gorm"

// OrderStatus is the settlement state of an order. PENDING transitions exactly
// once to PAID or FAILED; both are terminal.
type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderPaid    OrderStatus = "PAID"
	OrderFailed  OrderStatus = "FAILED"
)

// OrderItem is a snapshot of a cart line at purchase time. Price is the price
// the buyer was charged, not a live reference to the catalog price. Items are
// created atomically with their parent order and never mutated.
type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"order_id" gorm:"index;type:varchar(36)"`
	EbookID  string  `json:"ebook_id" gorm:"type:varchar(36)"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is the local record of a purchase, mirroring an order object held by
// the payment gateway. The row is the source of truth for settlement state.
type Order struct {
	ID               string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string      `json:"user_id" gorm:"index;type:varchar(36)"`
	Amount           float64     `json:"amount"`
	TotalAmount      float64     `json:"total_amount"`
	TaxAmount        float64     `json:"tax_amount"`
	Status           OrderStatus `json:"status" gorm:"type:varchar(10);default:PENDING"`
	GatewayOrderID   string      `json:"gateway_order_id" gorm:"uniqueIndex;type:varchar(64)"`
	GatewayPaymentID string      `json:"gateway_payment_id" gorm:"type:varchar(64)"`
	GatewaySignature string      `json:"-" gorm:"type:varchar(128)"`
	OrderItems       []OrderItem `json:"order_items" gorm:"foreignKey:OrderID"`
	gorm.Model
}

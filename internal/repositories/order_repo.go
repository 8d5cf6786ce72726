package repositories

import (
	"errors"

	"pustaka/internal/models"
)

// Settlement guard errors. An order leaves PENDING exactly once; these report
// attempts to move a row that is already terminal.
var (
	// ErrAlreadySettled means the order is already PAID. Callers treat a
	// re-delivered verification for a settled order as a no-op success.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrOrderClosed means the order is already FAILED and cannot be paid.
	ErrOrderClosed = errors.New("order already failed")
	// ErrInsufficientCopies means the sender does not hold enough available
	// copies to give one away while keeping at least one.
	ErrInsufficientCopies = errors.New("insufficient available copies")
	// ErrShareNotFound means no sharing grant exists for the given triple.
	ErrShareNotFound = errors.New("share not found")
)

// OrderRepository defines the interface for order data access. Terminal
// status transitions live on LibraryRepository.Settle (PAID, together with
// the ledger grant) and MarkFailed here; both refuse to touch a row that has
// already left PENDING.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error)
	ListByUser(userID string) ([]models.Order, error)
	MarkFailed(id string) error
	Count() (int64, error)
	CountByStatus() (map[string]int64, error)
	Revenue() (float64, error)
}

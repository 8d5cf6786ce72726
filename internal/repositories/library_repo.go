package repositories

import (
	"pustaka/internal/models"
)

// LibraryRepository defines the interface for the ownership/sharing ledger.
//
// Settle, Share and Reclaim are the only multi-row mutations in the system
// and each runs as one atomic transaction: payment confirmation plus every
// ownership grant is all-or-nothing, and a sharing grant is never visible
// without the matching Available decrement.
type LibraryRepository interface {
	GetOwned(userID, ebookID string) (*models.OwnedEbook, error)
	ListOwned(userID string) ([]models.OwnedEbook, error)
	ListSharesFrom(fromUserID string) ([]models.SharedEbook, error)
	ListSharesTo(toUserID string) ([]models.SharedEbook, error)
	// GetShare returns ErrShareNotFound when no grant exists for the triple.
	GetShare(fromUserID, toUserID, ebookID string) (*models.SharedEbook, error)
	// Settle marks the order PAID, storing the gateway payment ID and
	// signature, and upserts one OwnedEbook row per order item. Returns
	// ErrAlreadySettled / ErrOrderClosed without touching the ledger when the
	// order has already left PENDING.
	Settle(order *models.Order, gatewayPaymentID, gatewaySignature string) error
	// Share creates the grant and decrements the sender's Available by one.
	// Fails with ErrInsufficientCopies unless Available > 1 at commit time.
	Share(share *models.SharedEbook) error
	// Reclaim removes the grant and returns the copy to Available.
	Reclaim(fromUserID, toUserID, ebookID string) error
}

package repositories

import (
	"fmt"
	"sync"
	"time"

	"pustaka/internal/models"

	"github.com/google/uuid"
)

// MockLibraryRepository is an in-memory implementation of LibraryRepository.
// It shares an order store with a MockOrderRepository so that Settle flips
// the order status under the same guards as the GORM implementation.
type MockLibraryRepository struct {
	orders *MockOrderRepository
	owned  map[string]models.OwnedEbook  // keyed by row ID
	shares map[string]models.SharedEbook // keyed by from|to|ebook
	mu     sync.RWMutex
}

// NewMockLibraryRepository creates a new instance of MockLibraryRepository
// backed by the given order store.
func NewMockLibraryRepository(orders *MockOrderRepository) *MockLibraryRepository {
	return &MockLibraryRepository{
		orders: orders,
		owned:  make(map[string]models.OwnedEbook),
		shares: make(map[string]models.SharedEbook),
	}
}

func shareKey(fromUserID, toUserID, ebookID string) string {
	return fromUserID + "|" + toUserID + "|" + ebookID
}

func (r *MockLibraryRepository) findOwned(userID, ebookID string) (models.OwnedEbook, bool) {
	for _, o := range r.owned {
		if o.UserID == userID && o.EbookID == ebookID {
			return o, true
		}
	}
	return models.OwnedEbook{}, false
}

// GetOwned retrieves the ownership row for a (user, ebook) pair.
func (r *MockLibraryRepository) GetOwned(userID, ebookID string) (*models.OwnedEbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned, ok := r.findOwned(userID, ebookID)
	if !ok {
		return nil, fmt.Errorf("user %s does not own ebook %s", userID, ebookID)
	}
	return &owned, nil
}

// ListOwned retrieves all ownership rows for a user.
func (r *MockLibraryRepository) ListOwned(userID string) ([]models.OwnedEbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.OwnedEbook
	for _, o := range r.owned {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

// ListSharesFrom retrieves all grants a user has given out.
func (r *MockLibraryRepository) ListSharesFrom(fromUserID string) ([]models.SharedEbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.SharedEbook
	for _, s := range r.shares {
		if s.FromUserID == fromUserID {
			list = append(list, s)
		}
	}
	return list, nil
}

// ListSharesTo retrieves all grants a user has received.
func (r *MockLibraryRepository) ListSharesTo(toUserID string) ([]models.SharedEbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.SharedEbook
	for _, s := range r.shares {
		if s.ToUserID == toUserID {
			list = append(list, s)
		}
	}
	return list, nil
}

// GetShare retrieves the grant for a sender/recipient/ebook triple.
func (r *MockLibraryRepository) GetShare(fromUserID, toUserID, ebookID string) (*models.SharedEbook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	share, ok := r.shares[shareKey(fromUserID, toUserID, ebookID)]
	if !ok {
		return nil, ErrShareNotFound
	}
	return &share, nil
}

// Settle marks the order PAID and upserts the ownership ledger. The single
// lock stands in for the database transaction.
func (r *MockLibraryRepository) Settle(order *models.Order, gatewayPaymentID, gatewaySignature string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.orders.settlePaid(order.ID, gatewayPaymentID, gatewaySignature); err != nil {
		return err
	}

	for _, item := range order.OrderItems {
		owned, ok := r.findOwned(order.UserID, item.EbookID)
		if !ok {
			owned = models.OwnedEbook{
				ID:        uuid.New().String(),
				UserID:    order.UserID,
				EbookID:   item.EbookID,
				Quantity:  item.Quantity,
				Available: item.Quantity,
			}
			r.owned[owned.ID] = owned
			continue
		}
		owned.Quantity += item.Quantity
		owned.Available += item.Quantity
		r.owned[owned.ID] = owned
	}
	return nil
}

// Share creates the grant and decrements the sender's Available by one.
func (r *MockLibraryRepository) Share(share *models.SharedEbook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := shareKey(share.FromUserID, share.ToUserID, share.EbookID)
	if _, exists := r.shares[key]; exists {
		return fmt.Errorf("share already exists for %s", key)
	}

	owned, ok := r.owned[share.OwnedEbookID]
	if !ok || owned.Available <= 1 {
		return ErrInsufficientCopies
	}

	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	if share.SharedAt.IsZero() {
		share.SharedAt = time.Now()
	}
	r.shares[key] = *share
	owned.Available--
	r.owned[owned.ID] = owned
	return nil
}

// Reclaim removes the grant and returns the copy to Available.
func (r *MockLibraryRepository) Reclaim(fromUserID, toUserID, ebookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := shareKey(fromUserID, toUserID, ebookID)
	share, ok := r.shares[key]
	if !ok {
		return ErrShareNotFound
	}

	owned, ok := r.owned[share.OwnedEbookID]
	if !ok || owned.Available >= owned.Quantity {
		return fmt.Errorf("ownership row %s inconsistent with share %s", share.OwnedEbookID, share.ID)
	}

	delete(r.shares, key)
	owned.Available++
	r.owned[owned.ID] = owned
	return nil
}

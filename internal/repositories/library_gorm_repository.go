package repositories

import (
	"fmt"
	"time"

	"pustaka/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMLibraryRepository is a GORM implementation of LibraryRepository.
type GORMLibraryRepository struct {
	db *gorm.DB
}

// NewGORMLibraryRepository creates a new instance of GORMLibraryRepository.
func NewGORMLibraryRepository(db *gorm.DB) *GORMLibraryRepository {
	return &GORMLibraryRepository{
		db: db,
	}
}

// GetOwned retrieves the ownership row for a (user, ebook) pair.
func (r *GORMLibraryRepository) GetOwned(userID, ebookID string) (*models.OwnedEbook, error) {
	var owned models.OwnedEbook
	err := r.db.First(&owned, "user_id = ? AND ebook_id = ?", userID, ebookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %s does not own ebook %s", userID, ebookID)
		}
		return nil, fmt.Errorf("failed to get owned ebook: %w", err)
	}
	return &owned, nil
}

// ListOwned retrieves all ownership rows for a user.
func (r *GORMLibraryRepository) ListOwned(userID string) ([]models.OwnedEbook, error) {
	var owned []models.OwnedEbook
	if err := r.db.Where("user_id = ?", userID).Find(&owned).Error; err != nil {
		return nil, fmt.Errorf("failed to list owned ebooks for user %s: %w", userID, err)
	}
	return owned, nil
}

// ListSharesFrom retrieves all grants a user has given out.
func (r *GORMLibraryRepository) ListSharesFrom(fromUserID string) ([]models.SharedEbook, error) {
	var shares []models.SharedEbook
	if err := r.db.Where("from_user_id = ?", fromUserID).Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares from user %s: %w", fromUserID, err)
	}
	return shares, nil
}

// ListSharesTo retrieves all grants a user has received.
func (r *GORMLibraryRepository) ListSharesTo(toUserID string) ([]models.SharedEbook, error) {
	var shares []models.SharedEbook
	if err := r.db.Where("to_user_id = ?", toUserID).Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares to user %s: %w", toUserID, err)
	}
	return shares, nil
}

// GetShare retrieves the grant for a sender/recipient/ebook triple.
func (r *GORMLibraryRepository) GetShare(fromUserID, toUserID, ebookID string) (*models.SharedEbook, error) {
	var share models.SharedEbook
	err := r.db.First(&share, "from_user_id = ? AND to_user_id = ? AND ebook_id = ?",
		fromUserID, toUserID, ebookID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return &share, nil
}

// Settle converts a verified payment into ownership records. The status
// update and every per-item upsert run inside one transaction, so a failure
// in any upsert rolls the PAID transition back as well.
func (r *GORMLibraryRepository) Settle(order *models.Order, gatewayPaymentID, gatewaySignature string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderPending).
			Updates(map[string]interface{}{
				"status":             models.OrderPaid,
				"gateway_payment_id": gatewayPaymentID,
				"gateway_signature":  gatewaySignature,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark order %s paid: %w", order.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Order
			if err := tx.Select("status").First(&current, "id = ?", order.ID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("order with ID %s not found", order.ID)
				}
				return fmt.Errorf("failed to read order %s: %w", order.ID, err)
			}
			if current.Status == models.OrderPaid {
				return ErrAlreadySettled
			}
			return ErrOrderClosed
		}

		for _, item := range order.OrderItems {
			var owned models.OwnedEbook
			err := tx.First(&owned, "user_id = ? AND ebook_id = ?", order.UserID, item.EbookID).Error
			if err == gorm.ErrRecordNotFound {
				owned = models.OwnedEbook{
					ID:        uuid.New().String(),
					UserID:    order.UserID,
					EbookID:   item.EbookID,
					Quantity:  item.Quantity,
					Available: item.Quantity,
				}
				if err := tx.Create(&owned).Error; err != nil {
					return fmt.Errorf("failed to create ownership for ebook %s: %w", item.EbookID, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read ownership for ebook %s: %w", item.EbookID, err)
			}
			err = tx.Model(&models.OwnedEbook{}).
				Where("id = ?", owned.ID).
				Updates(map[string]interface{}{
					"quantity":  gorm.Expr("quantity + ?", item.Quantity),
					"available": gorm.Expr("available + ?", item.Quantity),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to increment ownership for ebook %s: %w", item.EbookID, err)
			}
		}
		return nil
	})
}

// Share creates the sharing grant and takes one copy out of the sender's
// Available count, atomically. The decrement is guarded by available > 1 so
// the sender always keeps at least one copy; losing the guard race rolls the
// grant back.
func (r *GORMLibraryRepository) Share(share *models.SharedEbook) error {
	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	if share.SharedAt.IsZero() {
		share.SharedAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			return fmt.Errorf("failed to create share: %w", err)
		}
		res := tx.Model(&models.OwnedEbook{}).
			Where("id = ? AND available > 1", share.OwnedEbookID).
			Update("available", gorm.Expr("available - 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement available copies: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientCopies
		}
		return nil
	})
}

// Reclaim deletes the sharing grant and returns the copy to the sender's
// Available count, atomically. The increment is guarded by
// available < quantity so Available can never exceed Quantity.
func (r *GORMLibraryRepository) Reclaim(fromUserID, toUserID, ebookID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var share models.SharedEbook
		err := tx.First(&share, "from_user_id = ? AND to_user_id = ? AND ebook_id = ?",
			fromUserID, toUserID, ebookID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrShareNotFound
			}
			return fmt.Errorf("failed to get share: %w", err)
		}
		if err := tx.Delete(&models.SharedEbook{}, "id = ?", share.ID).Error; err != nil {
			return fmt.Errorf("failed to delete share: %w", err)
		}
		res := tx.Model(&models.OwnedEbook{}).
			Where("id = ? AND available < quantity", share.OwnedEbookID).
			Update("available", gorm.Expr("available + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to return copy to available: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("ownership row %s inconsistent with share %s", share.OwnedEbookID, share.ID)
		}
		return nil
	})
}

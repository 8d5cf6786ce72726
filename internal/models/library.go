package models

import (
	"time"

	"gorm.io/gorm"
)

// OwnedEbook is the ownership ledger: one row per (user, ebook) pair.
// Quantity is the cumulative number of copies ever purchased; Available is the
// count not currently loaned out via sharing. 0 <= Available <= Quantity holds
// at all times.
type OwnedEbook struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"uniqueIndex:idx_owned_user_ebook;type:varchar(36)"`
	EbookID    string `json:"ebook_id" gorm:"uniqueIndex:idx_owned_user_ebook;type:varchar(36)"`
	Quantity   int    `json:"quantity"`
	Available  int    `json:"available"`
	gorm.Model `json:"-"`
}

// SharedEbook records one sharing grant, unique per sender/recipient/ebook
// triple. Reclaiming a share deletes the row and returns the copy to the
// sender's Available count. No gorm.Model here: a soft-deleted grant would
// keep occupying the unique index and block sharing the book again.
type SharedEbook struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FromUserID   string    `json:"from_user_id" gorm:"uniqueIndex:idx_share_triple;type:varchar(36)"`
	ToUserID     string    `json:"to_user_id" gorm:"uniqueIndex:idx_share_triple;type:varchar(36)"`
	EbookID      string    `json:"ebook_id" gorm:"uniqueIndex:idx_share_triple;type:varchar(36)"`
	OwnedEbookID string    `json:"owned_ebook_id" gorm:"type:varchar(36)"`
	SharedAt     time.Time `json:"shared_at"`
}

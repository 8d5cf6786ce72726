package models

import "gorm.io/gorm"

// Ebook represents a listing in the store catalog. CoverImage and FileURL
// point at objects held by the external storage service.
type Ebook struct {
	ID              string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title           string  `json:"title" validate:"required,min=2,max=200"`
	Slug            string  `json:"slug" gorm:"uniqueIndex;type:varchar(220)" validate:"omitempty,max=220"`
	Author          string  `json:"author" validate:"required,max=100"`
	Description     string  `json:"description" validate:"omitempty,max=2000"`
	Category        string  `json:"category" validate:"required,max=100"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	DiscountedPrice float64 `json:"discounted_price" validate:"gte=0,ltefield=Price"`
	CoverImage      string  `json:"cover_image"`
	FileURL         string  `json:"file_url"`
	Active          bool    `json:"active" gorm:"default:true"`
	gorm.Model
}

// SalePrice is the price a buyer actually pays: the discounted price when one
// is set, the list price otherwise.
func (e *Ebook) SalePrice() float64 {
	if e.DiscountedPrice > 0 {
		return e.DiscountedPrice
	}
	return e.Price
}

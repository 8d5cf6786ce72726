package repositories

import (
	"pustaka/internal/models"
)

// EbookRepository defines the interface for catalog data access.
type EbookRepository interface {
	GetAll() ([]models.Ebook, error)
	GetByID(id string) (*models.Ebook, error)
	GetBySlug(slug string) (*models.Ebook, error)
	Create(ebook *models.Ebook) error
	Update(ebook *models.Ebook) error
	Delete(id string) error
	Count() (int64, error)
	CountByCategory() (map[string]int64, error)
}

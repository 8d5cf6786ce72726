package repositories

import (
	"fmt"
	"pustaka/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMEbookRepository is a GORM implementation of EbookRepository.
type GORMEbookRepository struct {
	db *gorm.DB
}

// NewGORMEbookRepository creates a new instance of GORMEbookRepository.
func NewGORMEbookRepository(db *gorm.DB) *GORMEbookRepository {
	return &GORMEbookRepository{
		db: db,
	}
}

// GetAll retrieves all e-books from the database.
func (r *GORMEbookRepository) GetAll() ([]models.Ebook, error) {
	var ebooks []models.Ebook
	if err := r.db.Find(&ebooks).Error; err != nil {
		return nil, fmt.Errorf("failed to get all ebooks: %w", err)
	}
	return ebooks, nil
}

// GetByID retrieves a single e-book by its ID from the database.
func (r *GORMEbookRepository) GetByID(id string) (*models.Ebook, error) {
	var ebook models.Ebook
	if err := r.db.First(&ebook, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("ebook with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get ebook by ID %s: %w", id, err)
	}
	return &ebook, nil
}

// GetBySlug retrieves a single e-book by its slug from the database.
func (r *GORMEbookRepository) GetBySlug(slug string) (*models.Ebook, error) {
	var ebook models.Ebook
	if err := r.db.First(&ebook, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("ebook with slug %s not found", slug)
		}
		return nil, fmt.Errorf("failed to get ebook by slug %s: %w", slug, err)
	}
	return &ebook, nil
}

// Create creates a new e-book in the database.
func (r *GORMEbookRepository) Create(ebook *models.Ebook) error {
	if ebook.ID == "" {
		ebook.ID = uuid.New().String()
	}
	if err := r.db.Create(ebook).Error; err != nil {
		return fmt.Errorf("failed to create ebook: %w", err)
	}
	return nil
}

// Update updates an existing e-book in the database.
func (r *GORMEbookRepository) Update(ebook *models.Ebook) error {
	res := r.db.Save(ebook) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update ebook: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// GORM's Save doesn't return ErrRecordNotFound if no rows were
		// affected by an update, so we check RowsAffected.
		return fmt.Errorf("ebook with ID %s not found for update", ebook.ID)
	}
	return nil
}

// Delete deletes an e-book by its ID from the database.
func (r *GORMEbookRepository) Delete(id string) error {
	res := r.db.Delete(&models.Ebook{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete ebook: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ebook with ID %s not found for deletion", id)
	}
	return nil
}

// Count returns the total number of e-books in the catalog.
func (r *GORMEbookRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Ebook{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ebooks: %w", err)
	}
	return count, nil
}

// CountByCategory returns the number of e-books per catalog category.
func (r *GORMEbookRepository) CountByCategory() (map[string]int64, error) {
	var rows []struct {
		Category string
		Count    int64
	}
	err := r.db.Model(&models.Ebook{}).
		Select("category, count(*) as count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count ebooks by category: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

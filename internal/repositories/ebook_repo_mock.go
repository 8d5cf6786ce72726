package repositories

import (
	"fmt"
	"sync"

	"pustaka/internal/models"

	"github.com/google/uuid"
)

// MockEbookRepository is an in-memory implementation of EbookRepository.
type MockEbookRepository struct {
	ebooks map[string]models.Ebook
	mu     sync.RWMutex
}

// NewMockEbookRepository creates a new instance of MockEbookRepository.
func NewMockEbookRepository() *MockEbookRepository {
	return &MockEbookRepository{
		ebooks: make(map[string]models.Ebook),
	}
}

// GetAll returns all e-books.
func (r *MockEbookRepository) GetAll() ([]models.Ebook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Ebook, 0, len(r.ebooks))
	for _, e := range r.ebooks {
		list = append(list, e)
	}
	return list, nil
}

// GetByID returns an e-book by its ID.
func (r *MockEbookRepository) GetByID(id string) (*models.Ebook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ebook, ok := r.ebooks[id]
	if !ok {
		return nil, fmt.Errorf("ebook with ID %s not found", id)
	}
	return &ebook, nil
}

// GetBySlug returns an e-book by its slug.
func (r *MockEbookRepository) GetBySlug(slug string) (*models.Ebook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.ebooks {
		if e.Slug == slug {
			ebook := e
			return &ebook, nil
		}
	}
	return nil, fmt.Errorf("ebook with slug %s not found", slug)
}

// Create adds a new e-book.
func (r *MockEbookRepository) Create(ebook *models.Ebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ebook.ID == "" {
		ebook.ID = uuid.New().String()
	}
	r.ebooks[ebook.ID] = *ebook
	return nil
}

// Update replaces an existing e-book.
func (r *MockEbookRepository) Update(ebook *models.Ebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ebooks[ebook.ID]; !ok {
		return fmt.Errorf("ebook with ID %s not found for update", ebook.ID)
	}
	r.ebooks[ebook.ID] = *ebook
	return nil
}

// Delete removes an e-book by its ID.
func (r *MockEbookRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ebooks[id]; !ok {
		return fmt.Errorf("ebook with ID %s not found for deletion", id)
	}
	delete(r.ebooks, id)
	return nil
}

// Count returns the number of e-books held.
func (r *MockEbookRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.ebooks)), nil
}

// CountByCategory returns the number of e-books per category.
func (r *MockEbookRepository) CountByCategory() (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, e := range r.ebooks {
		counts[e.Category]++
	}
	return counts, nil
}

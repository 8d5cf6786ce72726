package services

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"pustaka/internal/models"
	"pustaka/internal/repositories"
	"pustaka/pkg/storage"

	"github.com/google/uuid"
)

// Storage buckets for catalog assets.
const (
	coverBucket = "covers"
	fileBucket  = "ebooks"
)

// CatalogService handles the admin back office over e-book listings and
// their stored assets.
type CatalogService struct {
	repo  repositories.EbookRepository
	store *storage.Client // nil disables asset handling
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.EbookRepository, store *storage.Client) *CatalogService {
	return &CatalogService{
		repo:  repo,
		store: store,
	}
}

// ListEbooks retrieves all catalog listings.
func (s *CatalogService) ListEbooks() ([]models.Ebook, error) {
	return s.repo.GetAll()
}

// GetEbook retrieves a single listing by its ID.
func (s *CatalogService) GetEbook(id string) (*models.Ebook, error) {
	return s.repo.GetByID(id)
}

// GetEbookBySlug retrieves a single listing by its slug.
func (s *CatalogService) GetEbookBySlug(slug string) (*models.Ebook, error) {
	return s.repo.GetBySlug(slug)
}

// CreateEbook creates a new listing. A missing slug is derived from the
// title; slugs must be unique across the catalog.
func (s *CatalogService) CreateEbook(ebook *models.Ebook) error {
	if ebook.Slug == "" {
		ebook.Slug = Slugify(ebook.Title)
	}
	if existing, err := s.repo.GetBySlug(ebook.Slug); err == nil && existing != nil {
		return fmt.Errorf("slug '%s' already in use", ebook.Slug)
	}
	return s.repo.Create(ebook)
}

// UpdateEbook updates an existing listing.
func (s *CatalogService) UpdateEbook(ebook *models.Ebook) error {
	return s.repo.Update(ebook)
}

// DeleteEbook removes a listing. Stored assets are removed best effort: a
// storage failure is logged but does not resurrect the listing.
func (s *CatalogService) DeleteEbook(ctx context.Context, id string) error {
	ebook, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	if s.store != nil {
		if ebook.CoverImage != "" {
			if err := s.store.Remove(ctx, coverBucket, []string{objectPath(ebook.CoverImage)}); err != nil {
				log.Printf("Warning: Failed to remove cover for ebook %s: %v", id, err)
			}
		}
		if ebook.FileURL != "" {
			if err := s.store.Remove(ctx, fileBucket, []string{objectPath(ebook.FileURL)}); err != nil {
				log.Printf("Warning: Failed to remove file for ebook %s: %v", id, err)
			}
		}
	}
	return nil
}

// AttachCover uploads a cover image for a listing and stores its public URL.
func (s *CatalogService) AttachCover(ctx context.Context, id, filename string, data []byte, contentType string) (*models.Ebook, error) {
	return s.attachAsset(ctx, id, filename, data, contentType, coverBucket)
}

// AttachFile uploads the e-book file itself and stores its public URL.
func (s *CatalogService) AttachFile(ctx context.Context, id, filename string, data []byte, contentType string) (*models.Ebook, error) {
	return s.attachAsset(ctx, id, filename, data, contentType, fileBucket)
}

func (s *CatalogService) attachAsset(ctx context.Context, id, filename string, data []byte, contentType, bucket string) (*models.Ebook, error) {
	if s.store == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	ebook, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", ebook.ID, uuid.New().String(), path.Ext(filename))
	url, err := s.store.Upload(ctx, bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %w", err)
	}

	switch bucket {
	case coverBucket:
		ebook.CoverImage = url
	case fileBucket:
		ebook.FileURL = url
	}
	if err := s.repo.Update(ebook); err != nil {
		return nil, err
	}
	return ebook, nil
}

// objectPath strips the public-URL prefix down to the bucket-relative key.
func objectPath(url string) string {
	if i := strings.LastIndex(url, "/object/public/"); i >= 0 {
		rest := url[i+len("/object/public/"):]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j+1:]
		}
	}
	return url
}

// Slugify lowercases a title and replaces runs of non-alphanumerics with
// single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

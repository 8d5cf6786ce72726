package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pustaka/internal/models"
	"pustaka/internal/repositories"
	"pustaka/internal/services"
	"pustaka/pkg/storage"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"The Go Programming Language": "the-go-programming-language",
		"C++ & Friends!":              "c-friends",
		"  spaced   out  ":            "spaced-out",
		"Already-Slugged":             "already-slugged",
		"1984":                        "1984",
	}
	for title, want := range cases {
		assert.Equal(t, want, services.Slugify(title))
	}
}

func TestCatalogService_CreateEbook_DerivesSlug(t *testing.T) {
	repo := repositories.NewMockEbookRepository()
	catalog := services.NewCatalogService(repo, nil)

	ebook := &models.Ebook{Title: "The Go Programming Language", Price: 500}
	assert.NoError(t, catalog.CreateEbook(ebook))
	assert.Equal(t, "the-go-programming-language", ebook.Slug)

	loaded, err := catalog.GetEbookBySlug("the-go-programming-language")
	assert.NoError(t, err)
	assert.Equal(t, ebook.ID, loaded.ID)
}

func TestCatalogService_CreateEbook_DuplicateSlug(t *testing.T) {
	repo := repositories.NewMockEbookRepository()
	catalog := services.NewCatalogService(repo, nil)

	assert.NoError(t, catalog.CreateEbook(&models.Ebook{Title: "Clean Code", Price: 400}))

	err := catalog.CreateEbook(&models.Ebook{Title: "Clean Code", Price: 450})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")
}

func TestCatalogService_DeleteEbook(t *testing.T) {
	repo := repositories.NewMockEbookRepository()
	catalog := services.NewCatalogService(repo, nil)

	ebook := &models.Ebook{Title: "Clean Code", Price: 400}
	assert.NoError(t, catalog.CreateEbook(ebook))

	assert.NoError(t, catalog.DeleteEbook(context.Background(), ebook.ID))
	_, err := catalog.GetEbook(ebook.ID)
	assert.Error(t, err)

	assert.Error(t, catalog.DeleteEbook(context.Background(), ebook.ID))
}

func TestCatalogService_AttachCover(t *testing.T) {
	var uploadedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Key":"ok"}`))
	}))
	defer server.Close()

	repo := repositories.NewMockEbookRepository()
	store := storage.NewClient(storage.Config{BaseURL: server.URL, APIKey: "test-key"})
	catalog := services.NewCatalogService(repo, store)

	ebook := &models.Ebook{Title: "Clean Code", Price: 400}
	assert.NoError(t, catalog.CreateEbook(ebook))

	updated, err := catalog.AttachCover(context.Background(), ebook.ID, "cover.png", []byte("png-bytes"), "image/png")
	assert.NoError(t, err)

	// The object key is namespaced by the listing ID and keeps the extension.
	assert.True(t, strings.HasPrefix(uploadedPath, "/object/covers/"+ebook.ID+"/"))
	assert.True(t, strings.HasSuffix(uploadedPath, ".png"))
	assert.Contains(t, updated.CoverImage, "/object/public/covers/"+ebook.ID+"/")

	// The URL is persisted on the listing.
	loaded, err := catalog.GetEbook(ebook.ID)
	assert.NoError(t, err)
	assert.Equal(t, updated.CoverImage, loaded.CoverImage)
}

func TestCatalogService_AttachCover_NoStorage(t *testing.T) {
	repo := repositories.NewMockEbookRepository()
	catalog := services.NewCatalogService(repo, nil)

	ebook := &models.Ebook{Title: "Clean Code", Price: 400}
	assert.NoError(t, catalog.CreateEbook(ebook))

	_, err := catalog.AttachCover(context.Background(), ebook.ID, "cover.png", []byte("png-bytes"), "image/png")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

package storage_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pustaka/pkg/storage"

	"github.com/stretchr/testify/assert"
)

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/object/covers/book-1/cover.png", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("png-bytes"), body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Key":"covers/book-1/cover.png"}`))
	}))
	defer server.Close()

	client := storage.NewClient(storage.Config{BaseURL: server.URL, APIKey: "test-key"})

	url, err := client.Upload(context.Background(), "covers", "book-1/cover.png", []byte("png-bytes"), "image/png")
	assert.NoError(t, err)
	assert.Equal(t, server.URL+"/object/public/covers/book-1/cover.png", url)
}

func TestClient_Upload_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"statusCode":"403","message":"new row violates row-level security policy"}`))
	}))
	defer server.Close()

	client := storage.NewClient(storage.Config{BaseURL: server.URL, APIKey: "bad-key"})

	_, err := client.Upload(context.Background(), "covers", "x.png", []byte("data"), "image/png")
	assert.Error(t, err)

	var apiErr *storage.ErrorResponse
	assert.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "row-level security")
}

func TestClient_Remove(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/object/covers", r.URL.Path)

		var payload map[string][]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"book-1/cover.png"}, payload["prefixes"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Successfully deleted"}`))
	}))
	defer server.Close()

	client := storage.NewClient(storage.Config{BaseURL: server.URL, APIKey: "test-key"})

	err := client.Remove(context.Background(), "covers", []string{"book-1/cover.png"})
	assert.NoError(t, err)
}

func TestClient_PublicURL(t *testing.T) {
	client := storage.NewClient(storage.Config{BaseURL: "https://store.example.com/storage/v1", APIKey: "k"})
	assert.Equal(t,
		"https://store.example.com/storage/v1/object/public/ebooks/book-1/file.pdf",
		client.PublicURL("ebooks", "book-1/file.pdf"))
}

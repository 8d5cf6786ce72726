// Package storage is a minimal client for a Supabase-style object storage
// HTTP API. The catalog flow uses it to hold e-book files and cover images;
// nothing else in the service touches it.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the storage endpoint and service key.
type Config struct {
	BaseURL string // e.g. https://<project>.supabase.co/storage/v1
	APIKey  string
}

// Client uploads, exposes and removes objects.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a new storage client.
func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				APIKey: cfg.APIKey,
				Base:   http.DefaultTransport,
			},
			Timeout: 30 * time.Second,
		},
		config: cfg,
	}
}

// AuthTransport adds the bearer key headers
type AuthTransport struct {
	APIKey string
	Base   http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.APIKey)
	req.Header.Set("apikey", t.APIKey)
	return t.Base.RoundTrip(req)
}

// ErrorResponse is the storage API's error envelope.
type ErrorResponse struct {
	StatusCode string `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("storage api error: %s: %s", e.StatusCode, e.Message)
}

// Upload stores an object and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", c.config.BaseURL, bucket, strings.TrimPrefix(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	return c.PublicURL(bucket, path), nil
}

// PublicURL returns the public address of an object.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.config.BaseURL, bucket, strings.TrimPrefix(path, "/"))
}

// Remove deletes objects from a bucket.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) error {
	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return fmt.Errorf("failed to marshal remove request: %w", err)
	}

	url := fmt.Sprintf("%s/object/%s", c.config.BaseURL, bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var apiErr ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
}

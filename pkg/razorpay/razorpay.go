// Package razorpay is a thin client for the slice of the Razorpay REST API
// this service depends on: order creation, plus payment and webhook
// signature verification.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Config holds the gateway credentials.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string // optional override, used by tests
}

// Client talks to the Razorpay orders API.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				KeyID:     cfg.KeyID,
				KeySecret: cfg.KeySecret,
				Base:      http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// AuthTransport adds Basic Auth headers
type AuthTransport struct {
	KeyID     string
	KeySecret string
	Base      http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := t.KeyID + ":" + t.KeySecret
	encodedAuth := base64.StdEncoding.EncodeToString([]byte(auth))
	req.Header.Set("Authorization", "Basic "+encodedAuth)
	req.Header.Set("Accept", "application/json")
	return t.Base.RoundTrip(req)
}

// Order is the gateway's representation of a pending charge, distinct from
// the local order row.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// APIError is a single error object returned by the gateway.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse is the gateway's error envelope.
type ErrorResponse struct {
	Err APIError `json:"error"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("razorpay api error: %s: %s", e.Err.Code, e.Err.Description)
}

// CreateOrder requests a new order object from the gateway. Amount is in the
// currency's smallest unit (paise for INR). Idempotency of this call is the
// gateway's responsibility.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	url := fmt.Sprintf("%s/orders", c.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Err.Code != "" {
			return nil, &apiErr
		}
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &order, nil
}

// Signature computes the lowercase hex HMAC-SHA256 digest the gateway
// attaches to a completed payment: "<orderID>|<paymentID>" under the key
// secret. The format is dictated by the gateway and must be reproduced
// exactly.
func Signature(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature reports whether the signature from the payment
// widget callback matches the expected digest.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := Signature(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature reports whether the X-Razorpay-Signature header
// matches the HMAC-SHA256 of the raw webhook body under the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Package payment calls the external payment gateway to verify that a
// payment proof submitted with a finalize request was actually
// captured.  The gateway itself (checkout, webhooks, refunds) is
// outside this service; all we need from it is a yes/no on a
// paymentId.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cinetix/seat-reservation/internal/reservation"
)

// Config configures the gateway client.
type Config struct {
	BaseURL string // empty disables remote verification
	APIKey  string
	Timeout time.Duration
}

// Client verifies payments against the gateway's check endpoint.  It
// implements reservation.PaymentVerifier.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type checkRequest struct {
	PaymentID string `json:"paymentId"`
}

type checkResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// NewClient builds a gateway client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Verify checks the payment with the gateway.  It returns
// reservation.ErrPaymentUnverified when the gateway answers but does
// not confirm capture, and a plain error on transport failure so the
// caller can distinguish "rejected" from "unknown".
func (c *Client) Verify(ctx context.Context, paymentID string) error {
	jsonBody, err := json.Marshal(checkRequest{PaymentID: paymentID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payments/check", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to check payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("payment %s: %w", paymentID, reservation.ErrPaymentUnverified)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var result checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Success || result.Status != "CONFIRMED" {
		return fmt.Errorf("payment %s status %q: %w", paymentID, result.Status, reservation.ErrPaymentUnverified)
	}
	return nil
}

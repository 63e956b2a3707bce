package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Charge is the provider's view of a payment attempt.
type Charge struct {
	ID     string `json:"id"`
	Status string `json:"status"` // pending | paid | failed
	PayURL string `json:"pay_url,omitempty"`
}

// PaymentProvider is the opaque payment collaborator. The real gateway sits
// behind an HTTP API; its success/failure callback drives the booking's
// confirmed/cancelled transition.
type PaymentProvider interface {
	CreateCharge(ctx context.Context, bookingID string, amount float64, currency string) (*Charge, error)
}

// HTTPPaymentProvider POSTs charge requests to an external gateway.
type HTTPPaymentProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewHTTPPaymentProvider(baseURL, apiKey string) *HTTPPaymentProvider {
	return &HTTPPaymentProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPPaymentProvider) CreateCharge(ctx context.Context, bookingID string, amount float64, currency string) (*Charge, error) {
	payload, err := json.Marshal(map[string]any{
		"external_id": bookingID,
		"amount":      amount,
		"currency":    currency,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}
	var ch Charge
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// NoopPaymentProvider stands in when no gateway is configured: every charge
// comes back pending and never resolves on its own.
type NoopPaymentProvider struct{}

func (NoopPaymentProvider) CreateCharge(_ context.Context, bookingID string, _ float64, _ string) (*Charge, error) {
	return &Charge{ID: "noop-" + bookingID, Status: "pending"}, nil
}

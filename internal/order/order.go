// Package order submits checkout payloads to a third-party form endpoint.
package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned by Submit when the client has no endpoint.
var ErrNotConfigured = errors.New("order endpoint not configured")

// Line is one ordered item.
type Line struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is the checkout payload.
type Order struct {
	Total decimal.Decimal
	Items []Line
}

// MarshalJSON writes the total as a JSON number, which is what the form
// endpoint expects.
func (o Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []Line{}
	}
	return json.Marshal(struct {
		Total json.Number `json:"total"`
		Items []Line      `json:"items"`
	}{
		Total: json.Number(o.Total.String()),
		Items: items,
	})
}

// Client posts orders. The endpoint's response is never inspected: an order
// counts as placed once the request was delivered without a transport error.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient returns a client for url with a bounded request timeout.
func NewClient(url string) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit posts the order.
func (c *Client) Submit(ctx context.Context, o Order) error {
	if c.URL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating order request: %w", err)
	}
	// Form endpoints accept simple content types without a preflight.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submitting order: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	slog.Info("order submitted", "items", len(o.Items), "total", o.Total.String(), "status", resp.StatusCode)
	return nil
}

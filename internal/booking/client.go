package booking

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

// Client calls the booking endpoints over HTTP. It implements the
// reservation manager's Endpoint contract: a server-side rejection comes
// back as *RejectedError with the verbatim message, anything else as
// *TransportError. The client never retries; retry policy belongs to the
// caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithClientTimeout overrides the per-call timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient returns a booking client against baseURL (the API base path,
// e.g. http://localhost:8080/api/v1).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reserve asks the server to hold ticketIDs and returns the confirmed ids.
// The list must be non-empty and deduplicated.
func (c *Client) Reserve(ctx context.Context, ticketIDs []string) ([]string, error) {
	var resp ReserveResponse
	status, err := c.post(ctx, "/booking/reserve", ReserveRequest{TicketIDs: ticketIDs}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RejectedError{Message: resp.Message, StatusCode: status}
	}
	return resp.TicketIDs, nil
}

// Purchase completes the purchase of held ticketIDs.
func (c *Client) Purchase(ctx context.Context, ticketIDs []string) (*PurchaseResponse, error) {
	var resp PurchaseResponse
	status, err := c.post(ctx, "/booking/purchase", PurchaseRequest{TicketIDs: ticketIDs}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RejectedError{Message: resp.Message, StatusCode: status}
	}
	return &resp, nil
}

// post sends the request and decodes the response body into out. The
// booking service returns a decodable body even on error statuses, so the
// body is parsed before the status is judged.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, &TransportError{Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &TransportError{
			Err: fmt.Errorf("booking service returned status %d with unreadable body", resp.StatusCode),
		}
	}
	return resp.StatusCode, nil
}

package delegatesdk

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

// Client talks to a delegate service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token, when set, is sent as a bearer credential.
	Token string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			// Writes block until the ledger reaches finality.
			Timeout: 3 * time.Minute,
		},
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil). Any status other than expected becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, expected int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expected {
		return parseErrorResponse(resp, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service and its dependencies are ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

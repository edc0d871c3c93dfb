package clob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const (
	// DefaultBaseURL is the base URL for the CLOB API.
	DefaultBaseURL = "https://clob.polymarket.com"
)

// ErrNotFound indicates a valid response with no data: the token has no
// resting orders or the market is inactive. Callers must not treat it
// as a transport failure.
var ErrNotFound = errors.New("book not found")

// Client is an HTTP client for the CLOB API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new CLOB API client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
	}
}

// WithBaseURL sets a custom base URL for the client.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// FetchBook fetches the order book for a given token ID. A 404 maps to
// ErrNotFound; any other non-200 status is a transport-level failure.
func (c *Client) FetchBook(ctx context.Context, tokenID string) (*BookSnapshot, error) {
	u := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, url.QueryEscape(tokenID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("token %s: %w", tokenID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var snap BookSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &snap, nil
}

// FetchMidpoint fetches the midpoint price for a given token ID.
func (c *Client) FetchMidpoint(ctx context.Context, tokenID string) (string, error) {
	u := fmt.Sprintf("%s/midpoint?token_id=%s", c.baseURL, url.QueryEscape(tokenID))

	var midResp MidpointResponse
	if err := c.getJSON(ctx, u, &midResp); err != nil {
		return "", err
	}
	return midResp.Mid, nil
}

// FetchSpread fetches the spread for a given token ID.
func (c *Client) FetchSpread(ctx context.Context, tokenID string) (string, error) {
	u := fmt.Sprintf("%s/spread?token_id=%s", c.baseURL, url.QueryEscape(tokenID))

	var spreadResp SpreadResponse
	if err := c.getJSON(ctx, u, &spreadResp); err != nil {
		return "", err
	}
	return spreadResp.Spread, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

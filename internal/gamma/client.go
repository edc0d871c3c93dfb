package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Gamma API.
	DefaultBaseURL = "https://gamma-api.polymarket.com"
)

// Client is an HTTP client for the Gamma API. All requests pass through
// a shared rate limiter so catalog refreshes and slug lookups cannot
// burst past the API's tolerance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new Gamma API client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
}

// WithBaseURL sets a custom base URL for the client.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithLimiter sets a custom request rate limiter.
func (c *Client) WithLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// FetchMarkets fetches markets from the Gamma API.
func (c *Client) FetchMarkets(ctx context.Context, filter *Filter) ([]Market, error) {
	u := c.baseURL + "/markets"
	if filter != nil {
		u += "?" + buildQuery(filter)
	}

	var markets []Market
	if err := c.getJSON(ctx, u, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// FetchEvents fetches events from the Gamma API.
func (c *Client) FetchEvents(ctx context.Context, filter *Filter) ([]Event, error) {
	u := c.baseURL + "/events"
	if filter != nil {
		u += "?" + buildQuery(filter)
	}

	var events []Event
	if err := c.getJSON(ctx, u, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEventBySlug fetches a single event by its vanity slug, including
// its nested markets.
func (c *Client) FetchEventBySlug(ctx context.Context, slug string) (*Event, error) {
	events, err := c.FetchEvents(ctx, &Filter{Slug: slug})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event not found: %s", slug)
	}
	return &events[0], nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

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

// buildQuery builds URL query parameters from a Filter.
func buildQuery(f *Filter) string {
	v := url.Values{}
	if f.Active != nil {
		v.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Closed != nil {
		v.Set("closed", strconv.FormatBool(*f.Closed))
	}
	if f.Slug != "" {
		v.Set("slug", f.Slug)
	}
	if f.Order != "" {
		v.Set("order", f.Order)
	}
	if f.Ascending != nil {
		v.Set("ascending", strconv.FormatBool(*f.Ascending))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v.Encode()
}

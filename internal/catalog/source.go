package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/polyterm/polyterm/internal/gamma"
)

// DefaultPageSize bounds the catalog fetch so search stays responsive.
const DefaultPageSize = 200

// ErrUnresolvable indicates a market without enough outcome tokens to
// build a dashboard.
var ErrUnresolvable = errors.New("market cannot be resolved to a tradeable book")

// GammaSource adapts the Gamma client into a FetchFunc. Markets come
// back ordered by descending 24h volume; entries without at least two
// outcome tokens are dropped, since an order book dashboard needs two
// priced outcomes.
func GammaSource(client *gamma.Client, pageSize int) FetchFunc {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(ctx context.Context) ([]Market, error) {
		active := true
		closed := false
		asc := false
		raw, err := client.FetchMarkets(ctx, &gamma.Filter{
			Active:    &active,
			Closed:    &closed,
			Order:     "volume24hr",
			Ascending: &asc,
			Limit:     pageSize,
		})
		if err != nil {
			return nil, err
		}

		markets := make([]Market, 0, len(raw))
		for i := range raw {
			if m, ok := fromGamma(&raw[i]); ok {
				markets = append(markets, m)
			}
		}
		return markets, nil
	}
}

// fromGamma converts a Gamma market to the catalog view. The second
// return value is false for single-outcome or malformed entries.
func fromGamma(g *gamma.Market) (Market, bool) {
	if len(g.ClobTokenIds) < 2 || len(g.Outcomes) < 2 {
		return Market{}, false
	}
	if len(g.ClobTokenIds) != len(g.Outcomes) {
		return Market{}, false
	}
	return Market{
		ID:          g.ID,
		Title:       g.DisplayTitle(),
		Description: g.Description,
		Slug:        g.Slug,
		Outcomes:    []string(g.Outcomes),
		TokenIDs:    []string(g.ClobTokenIds),
		Volume24h:   g.Volume24hr,
		Liquidity:   g.LiquidityNum,
	}, true
}

// ResolveEventURL resolves a vanity event URL (or bare slug) to the
// event's highest-24h-volume market that can back a dashboard.
func ResolveEventURL(ctx context.Context, client *gamma.Client, raw string) (Market, error) {
	slug, err := eventSlug(raw)
	if err != nil {
		return Market{}, err
	}

	event, err := client.FetchEventBySlug(ctx, slug)
	if err != nil {
		return Market{}, fmt.Errorf("resolving slug %q: %w", slug, err)
	}

	var best Market
	found := false
	for i := range event.Markets {
		m, ok := fromGamma(&event.Markets[i])
		if !ok {
			continue
		}
		if !found || m.Volume24h > best.Volume24h {
			best = m
			found = true
		}
	}
	if !found {
		return Market{}, fmt.Errorf("event %q: %w", slug, ErrUnresolvable)
	}
	return best, nil
}

// eventSlug extracts the slug from a ".../event/<slug>" URL path. Input
// that is not a URL is taken as a bare slug.
func eventSlug(raw string) (string, error) {
	if !strings.Contains(raw, "/") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing market URL: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "event" && i+1 < len(segments) {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("no event slug in %q", raw)
}

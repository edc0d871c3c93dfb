// Package catalog maintains a searchable, TTL-cached view of the active
// market catalog.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"
)

// Market is the catalog's read-only view of one market. Token ids are
// ordered to match outcomes, one per outcome.
type Market struct {
	ID          string
	Title       string
	Description string
	Slug        string
	Outcomes    []string
	TokenIDs    []string
	Volume24h   float64
	Liquidity   float64
}

// FetchFunc loads the full active-market catalog. Implementations
// should return markets ordered by descending 24h volume.
type FetchFunc func(ctx context.Context) ([]Market, error)

const (
	// DefaultTTL is how long a cached catalog stays fresh.
	DefaultTTL = 60 * time.Second

	// DefaultTopResults caps the empty-query result list.
	DefaultTopResults = 50

	// DefaultSearchResults caps fuzzy search results.
	DefaultSearchResults = 30

	// minQueryLength is the shortest query that triggers fuzzy
	// matching; anything shorter falls back to the top list.
	minQueryLength = 2
)

// Cache is a TTL cache over the market catalog with ranked fuzzy
// search. The entry is replaced wholesale on refresh, never mutated, so
// readers never observe a partially updated catalog.
type Cache struct {
	fetch         FetchFunc
	ttl           time.Duration
	now           func() time.Time
	topResults    int
	searchResults int
	titleWeight   int
	descWeight    int
	log           zerolog.Logger

	mu    sync.Mutex
	entry *entry
}

type entry struct {
	markets   []Market
	fetchedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the refresh TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLimits overrides the result caps.
func WithLimits(top, search int) Option {
	return func(c *Cache) {
		c.topResults = top
		c.searchResults = search
	}
}

// WithWeights overrides the fuzzy scoring weights for title and
// description matches.
func WithWeights(title, desc int) Option {
	return func(c *Cache) {
		c.titleWeight = title
		c.descWeight = desc
	}
}

// WithLogger sets the cache logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// New creates a catalog cache around a fetch function.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:         fetch,
		ttl:           DefaultTTL,
		now:           time.Now,
		topResults:    DefaultTopResults,
		searchResults: DefaultSearchResults,
		titleWeight:   2,
		descWeight:    1,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns markets ranked for the query. An empty (or too short)
// query returns the top markets by 24h volume. A refresh failure with a
// stale entry still present serves the stale entry; with no entry at
// all the fetch error propagates.
func (c *Cache) Search(ctx context.Context, query string) ([]Market, error) {
	markets, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return c.topByVolume(markets), nil
	}
	return c.fuzzySearch(markets, query), nil
}

// current returns the cached catalog, refreshing it when absent or
// older than the TTL.
func (c *Cache) current(ctx context.Context) ([]Market, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && c.now().Sub(c.entry.fetchedAt) < c.ttl {
		return c.entry.markets, nil
	}

	markets, err := c.fetch(ctx)
	if err != nil {
		if c.entry != nil {
			c.log.Warn().Err(err).Msg("catalog refresh failed, serving stale entry")
			return c.entry.markets, nil
		}
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	c.entry = &entry{markets: markets, fetchedAt: c.now()}
	return markets, nil
}

func (c *Cache) topByVolume(markets []Market) []Market {
	out := append([]Market(nil), markets...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	if len(out) > c.topResults {
		out = out[:c.topResults]
	}
	return out
}

type scored struct {
	market Market
	score  int
}

// fuzzySearch ranks markets against the query. Title matches score
// higher than description matches; ties break on 24h volume.
func (c *Cache) fuzzySearch(markets []Market, query string) []Market {
	query = strings.ToLower(query)

	titles := make([]string, len(markets))
	descs := make([]string, len(markets))
	for i, m := range markets {
		titles[i] = strings.ToLower(m.Title)
		descs[i] = strings.ToLower(m.Description)
	}

	scores := make(map[int]int)
	for _, match := range fuzzy.Find(query, titles) {
		scores[match.Index] += c.titleWeight * (match.Score + 1)
	}
	for _, match := range fuzzy.Find(query, descs) {
		scores[match.Index] += c.descWeight * (match.Score + 1)
	}

	results := make([]scored, 0, len(scores))
	for idx, score := range scores {
		results = append(results, scored{market: markets[idx], score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].market.Volume24h > results[j].market.Volume24h
	})

	if len(results) > c.searchResults {
		results = results[:c.searchResults]
	}
	out := make([]Market, len(results))
	for i, r := range results {
		out[i] = r.market
	}
	return out
}

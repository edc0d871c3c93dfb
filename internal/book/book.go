// Package book provides the order book domain model shared by the REST
// bootstrap, the streaming feed, and the dashboard.
package book

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel represents a single resting-order aggregate at a price.
// Prices and sizes are parsed into decimals once, at the ingestion
// boundary; downstream code never re-parses text.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Book is one token's two-sided order book. Bids are kept strictly
// descending by price and asks strictly ascending, so Bids[0] and
// Asks[0] are always the best quotes.
type Book struct {
	Bids      []PriceLevel
	Asks      []PriceLevel
	Hash      string
	UpdatedAt time.Time
}

// Normalize re-sorts both sides into the canonical order. The source
// feed's ordering is not trusted, so every writer calls this before
// publishing a book.
func (b *Book) Normalize() {
	sort.Slice(b.Bids, func(i, j int) bool {
		return b.Bids[i].Price.GreaterThan(b.Bids[j].Price)
	})
	sort.Slice(b.Asks, func(i, j int) bool {
		return b.Asks[i].Price.LessThan(b.Asks[j].Price)
	})
}

// BestBid returns the highest bid, if any.
func (b *Book) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (b *Book) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Mid returns the arithmetic mean of the best bid and best ask.
// It requires both sides to be non-empty.
func (b *Book) Mid() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Spread returns best ask minus best bid.
func (b *Book) Spread() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}

// clone returns a deep-enough copy: level slices are copied so callers
// can hold a book while the store replaces it.
func (b *Book) clone() Book {
	out := Book{Hash: b.Hash, UpdatedAt: b.UpdatedAt}
	if b.Bids != nil {
		out.Bids = append([]PriceLevel(nil), b.Bids...)
	}
	if b.Asks != nil {
		out.Asks = append([]PriceLevel(nil), b.Asks...)
	}
	return out
}

// Package clob provides a client for the Polymarket CLOB REST API.
package clob

import (
	"github.com/polyterm/polyterm/internal/book"
)

// BookSnapshot represents an order book snapshot from the CLOB API.
// Price levels decode straight into decimals; a level that fails to
// parse fails the whole snapshot decode.
type BookSnapshot struct {
	Market    string            `json:"market"`
	AssetID   string            `json:"asset_id"`
	Timestamp string            `json:"timestamp"`
	Hash      string            `json:"hash"`
	Bids      []book.PriceLevel `json:"bids"`
	Asks      []book.PriceLevel `json:"asks"`
}

// Book converts the snapshot into the domain model. Sides are sorted by
// the store on write, not here.
func (s *BookSnapshot) Book() book.Book {
	return book.Book{
		Bids: s.Bids,
		Asks: s.Asks,
		Hash: s.Hash,
	}
}

// MidpointResponse represents the response from the midpoint endpoint.
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// SpreadResponse represents the response from the spread endpoint.
type SpreadResponse struct {
	Spread string `json:"spread"`
}

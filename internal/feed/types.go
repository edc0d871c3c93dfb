// Package feed maintains the live order book subscription over the
// CLOB market WebSocket and keeps the book store current.
package feed

import (
	"github.com/polyterm/polyterm/internal/book"
)

// State is the connection state of the feed client.
type State int32

const (
	Disconnected State = iota
	Connecting
	Subscribed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// SubscribeMessage is sent after the connection opens, listing every
// currently-subscribed token id.
type SubscribeMessage struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// EventTypeBook is the event type for a full order book snapshot.
const EventTypeBook = "book"

// BookUpdate is one token's full snapshot from the feed.
type BookUpdate struct {
	EventType string            `json:"event_type"`
	AssetID   string            `json:"asset_id"`
	Hash      string            `json:"hash"`
	Bids      []book.PriceLevel `json:"bids"`
	Asks      []book.PriceLevel `json:"asks"`
}

// valid reports whether the update carries everything a snapshot needs:
// a token id and both sides. An empty side is fine; a missing one is not.
func (u *BookUpdate) valid() bool {
	return u.AssetID != "" && u.Bids != nil && u.Asks != nil
}

// Book converts the update into the domain model.
func (u *BookUpdate) Book() book.Book {
	return book.Book{
		Bids: u.Bids,
		Asks: u.Asks,
		Hash: u.Hash,
	}
}

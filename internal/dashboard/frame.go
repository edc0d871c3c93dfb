// Package dashboard drives the fixed-rate render cycle: gather state,
// diff against the previous tick, emit a frame to the presentation sink.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyterm/polyterm/internal/book"
	"github.com/polyterm/polyterm/internal/feed"
	"github.com/polyterm/polyterm/internal/flash"
)

// Line is one row of a frame with its highlight annotation.
type Line struct {
	Text  string
	Flash flash.Direction
}

// Frame is the immutable output of one render tick. Overwrite tells the
// sink how many lines of the previous frame to move up over and clear,
// so redraws happen in place instead of from a blank screen.
type Frame struct {
	Lines     []Line
	Overwrite int
}

// OutcomeState is one outcome's gathered book state for a tick.
type OutcomeState struct {
	Name    string
	TokenID string
	Book    book.Book
	Present bool
}

// Snapshot is everything a tick reads before formatting. It is gathered
// once at tick start; the frame build never touches live state again.
type Snapshot struct {
	Title      string
	Outcomes   []OutcomeState
	FeedState  feed.State
	LastMsg    time.Time
	Now        time.Time
	StaleAfter time.Duration
}

const barWidth = 16

// buildFrame formats a snapshot into a frame. It runs every displayed
// price through the detector so movement since the previous tick is
// annotated on the line that shows it.
func buildFrame(snap Snapshot, det *flash.Detector, depth, prevLines int) Frame {
	f := Frame{Overwrite: prevLines}

	f.add(snap.Title, flash.None)
	f.add(statusLine(snap), flash.None)

	for i := range snap.Outcomes {
		out := &snap.Outcomes[i]
		f.add("", flash.None)
		if !out.Present {
			f.add(fmt.Sprintf("%s — waiting for book…", out.Name), flash.None)
			continue
		}
		renderOutcome(&f, out, det, depth)
	}
	return f
}

func (f *Frame) add(text string, dir flash.Direction) {
	f.Lines = append(f.Lines, Line{Text: text, Flash: dir})
}

func statusLine(snap Snapshot) string {
	switch snap.FeedState {
	case feed.Subscribed:
		if !snap.LastMsg.IsZero() && snap.Now.Sub(snap.LastMsg) > snap.StaleAfter {
			return fmt.Sprintf("● STALE — last update %s ago", snap.Now.Sub(snap.LastMsg).Round(time.Second))
		}
		return "● LIVE"
	case feed.Connecting:
		return "◌ RECONNECTING…"
	default:
		return "○ DISCONNECTED"
	}
}

func renderOutcome(f *Frame, out *OutcomeState, det *flash.Detector, depth int) {
	b := &out.Book
	f.add(summaryLine(out), midFlash(out, det))

	bids := b.Bids
	if len(bids) > depth {
		bids = bids[:depth]
	}
	asks := b.Asks
	if len(asks) > depth {
		asks = asks[:depth]
	}
	maxSize := maxLevelSize(bids, asks)

	// Ladder layout: asks stacked above the spread, best ask on the
	// bottom row, then bids from best downward.
	for i := len(asks) - 1; i >= 0; i-- {
		dir := levelFlash(det, flash.AskKey(out.TokenID, i), asks[i].Price)
		f.add(levelLine("ask", asks[i], maxSize), dir)
	}
	f.add("  ────────", flash.None)
	for i := 0; i < len(bids); i++ {
		dir := levelFlash(det, flash.BidKey(out.TokenID, i), bids[i].Price)
		f.add(levelLine("bid", bids[i], maxSize), dir)
	}
}

func summaryLine(out *OutcomeState) string {
	b := &out.Book
	mid, okM := b.Mid()
	spread, okS := b.Spread()
	if !okM || !okS {
		return fmt.Sprintf("%s   (one-sided book)", out.Name)
	}
	return fmt.Sprintf("%s   mid %s   spread %s", out.Name, mid.StringFixed(4), spread.StringFixed(4))
}

func midFlash(out *OutcomeState, det *flash.Detector) flash.Direction {
	mid, ok := out.Book.Mid()
	if !ok {
		return flash.None
	}
	return levelFlash(det, flash.MidKey(out.TokenID), mid)
}

// levelFlash feeds a price into the detector and returns the still-open
// highlight for its key, covering both a fresh delta and a window
// opened on an earlier tick.
func levelFlash(det *flash.Detector, k flash.Key, price decimal.Decimal) flash.Direction {
	if dir := det.Observe(k, price); dir != flash.None {
		return dir
	}
	return det.Active(k)
}

func levelLine(side string, lvl book.PriceLevel, maxSize decimal.Decimal) string {
	return fmt.Sprintf("  %s  %s  %10s  %s",
		side, lvl.Price.StringFixed(4), lvl.Size.StringFixed(2), depthBar(lvl.Size, maxSize))
}

// depthBar renders a level's size as a proportional fill against the
// largest displayed size.
func depthBar(size, maxSize decimal.Decimal) string {
	if maxSize.IsZero() || size.IsZero() {
		return ""
	}
	prop, _ := size.Div(maxSize).Float64()
	n := int(prop*barWidth + 0.5)
	if n < 1 {
		n = 1
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n)
}

func maxLevelSize(bids, asks []book.PriceLevel) decimal.Decimal {
	max := decimal.Zero
	for _, l := range bids {
		if l.Size.GreaterThan(max) {
			max = l.Size
		}
	}
	for _, l := range asks {
		if l.Size.GreaterThan(max) {
			max = l.Size
		}
	}
	return max
}

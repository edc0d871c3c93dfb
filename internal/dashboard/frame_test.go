package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyterm/polyterm/internal/book"
	"github.com/polyterm/polyterm/internal/feed"
	"github.com/polyterm/polyterm/internal/flash"
)

func level(price, size string) book.PriceLevel {
	return book.PriceLevel{
		Price: decimal.RequireFromString(price),
		Size:  decimal.RequireFromString(size),
	}
}

func twoSided(bid, ask string) book.Book {
	b := book.Book{
		Bids: []book.PriceLevel{level(bid, "100")},
		Asks: []book.PriceLevel{level(ask, "50")},
	}
	b.Normalize()
	return b
}

func testSnapshot(outcomes ...OutcomeState) Snapshot {
	return Snapshot{
		Title:      "Will it rain?",
		Outcomes:   outcomes,
		FeedState:  feed.Subscribed,
		LastMsg:    time.Now(),
		Now:        time.Now(),
		StaleAfter: 3 * time.Second,
	}
}

func TestBuildFrame_CarriesPreviousLineCount(t *testing.T) {
	det := flash.NewDetector()
	snap := testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Book: twoSided("0.45", "0.55"), Present: true})

	f1 := buildFrame(snap, det, 12, 0)
	if f1.Overwrite != 0 {
		t.Errorf("first frame Overwrite = %d, want 0", f1.Overwrite)
	}
	f2 := buildFrame(snap, det, 12, len(f1.Lines))
	if f2.Overwrite != len(f1.Lines) {
		t.Errorf("second frame Overwrite = %d, want %d", f2.Overwrite, len(f1.Lines))
	}
}

func TestBuildFrame_PlaceholderForAbsentBook(t *testing.T) {
	det := flash.NewDetector()
	snap := testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Present: false})

	f := buildFrame(snap, det, 12, 0)
	joined := ""
	for _, l := range f.Lines {
		joined += l.Text + "\n"
	}
	if !strings.Contains(joined, "waiting for book") {
		t.Errorf("frame missing placeholder for absent book:\n%s", joined)
	}
}

func TestBuildFrame_StatusLines(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		state feed.State
		last  time.Time
		want  string
	}{
		{"live", feed.Subscribed, now, "LIVE"},
		{"stale", feed.Subscribed, now.Add(-10 * time.Second), "STALE"},
		{"reconnecting", feed.Connecting, now, "RECONNECTING"},
		{"disconnected", feed.Disconnected, now, "DISCONNECTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			snap.FeedState = tt.state
			snap.LastMsg = tt.last
			snap.Now = now

			f := buildFrame(snap, flash.NewDetector(), 12, 0)
			if len(f.Lines) < 2 || !strings.Contains(f.Lines[1].Text, tt.want) {
				t.Errorf("status line = %q, want contains %q", f.Lines[1].Text, tt.want)
			}
		})
	}
}

func TestBuildFrame_DepthTruncation(t *testing.T) {
	var bids, asks []book.PriceLevel
	for i := 0; i < 30; i++ {
		bids = append(bids, level(decimal.NewFromFloat(0.40-float64(i)*0.01).String(), "10"))
		asks = append(asks, level(decimal.NewFromFloat(0.60+float64(i)*0.01).String(), "10"))
	}
	b := book.Book{Bids: bids, Asks: asks}
	b.Normalize()

	det := flash.NewDetector()
	snap := testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Book: b, Present: true})
	f := buildFrame(snap, det, 12, 0)

	levels := 0
	for _, l := range f.Lines {
		if strings.Contains(l.Text, "bid") || strings.Contains(l.Text, "ask") {
			levels++
		}
	}
	if levels != 24 {
		t.Errorf("rendered %d levels, want 24 (12 per side)", levels)
	}
}

func TestBuildFrame_FlashOnPriceChange(t *testing.T) {
	det := flash.NewDetector()

	snap := testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Book: twoSided("0.45", "0.55"), Present: true})
	buildFrame(snap, det, 12, 0)

	// Best bid moves up; the summary (mid) and the bid row must both
	// light up.
	snap = testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Book: twoSided("0.47", "0.55"), Present: true})
	f := buildFrame(snap, det, 12, 0)

	var summary, bidRow *Line
	for i := range f.Lines {
		if strings.Contains(f.Lines[i].Text, "mid") {
			summary = &f.Lines[i]
		}
		if strings.Contains(f.Lines[i].Text, "bid") {
			bidRow = &f.Lines[i]
		}
	}
	if summary == nil || summary.Flash != flash.Up {
		t.Errorf("summary flash = %v, want up", summary)
	}
	if bidRow == nil || bidRow.Flash != flash.Up {
		t.Errorf("bid row flash = %v, want up", bidRow)
	}
}

func TestBuildFrame_NoFlashOnSteadyState(t *testing.T) {
	det := flash.NewDetector().WithWindow(0)
	snap := testSnapshot(OutcomeState{Name: "Yes", TokenID: "T1", Book: twoSided("0.45", "0.55"), Present: true})

	buildFrame(snap, det, 12, 0)
	f := buildFrame(snap, det, 12, 0)
	for _, l := range f.Lines {
		if l.Flash != flash.None {
			t.Errorf("line %q flash = %v, want none for unchanged book", l.Text, l.Flash)
		}
	}
}

func TestDepthBar_Proportional(t *testing.T) {
	max := decimal.NewFromInt(100)
	full := depthBar(decimal.NewFromInt(100), max)
	half := depthBar(decimal.NewFromInt(50), max)
	tiny := depthBar(decimal.NewFromInt(1), max)

	if len([]rune(full)) != barWidth {
		t.Errorf("full bar width = %d, want %d", len([]rune(full)), barWidth)
	}
	if len([]rune(half)) != barWidth/2 {
		t.Errorf("half bar width = %d, want %d", len([]rune(half)), barWidth/2)
	}
	if len([]rune(tiny)) < 1 {
		t.Error("non-zero size should render at least one cell")
	}
	if depthBar(decimal.Zero, max) != "" {
		t.Error("zero size should render an empty bar")
	}
}

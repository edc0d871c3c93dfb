package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/polyterm/polyterm/internal/book"
	"github.com/polyterm/polyterm/internal/catalog"
	"github.com/polyterm/polyterm/internal/feed"
	"github.com/polyterm/polyterm/internal/flash"
)

// Sink is the presentation collaborator. It receives one frame per tick
// and a teardown signal when the dashboard exits.
type Sink interface {
	WriteFrame(Frame) error
	Teardown()
}

// Config holds the render timing and depth settings.
type Config struct {
	Interval    time.Duration
	DepthSingle int
	DepthDual   int
	StaleAfter  time.Duration
}

// DefaultConfig returns the default render settings.
func DefaultConfig() Config {
	return Config{
		Interval:    100 * time.Millisecond,
		DepthSingle: 15,
		DepthDual:   12,
		StaleAfter:  3 * time.Second,
	}
}

// Scheduler runs the fixed-rate render loop for one active dashboard.
// Each tick is a single gather → diff → emit pass; a tick that would
// start while the previous one is still running is skipped, never
// queued.
type Scheduler struct {
	store *book.Store
	feed  *feed.Client
	det   *flash.Detector
	sink  Sink
	cfg   Config
	log   zerolog.Logger

	prevLines int
}

// NewScheduler wires a scheduler over the shared state.
func NewScheduler(store *book.Store, fc *feed.Client, det *flash.Detector, sink Sink, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		store: store,
		feed:  fc,
		det:   det,
		sink:  sink,
		cfg:   cfg,
		log:   log,
	}
}

// Run ticks until the context is cancelled or the sink fails fatally.
// The sink gets its teardown signal on the way out.
func (s *Scheduler) Run(ctx context.Context, market catalog.Market) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	defer s.sink.Teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Ticks are handled inline on this goroutine; time.Ticker
			// drops the intervals that elapse while a slow render is
			// still running, so they are skipped, never queued up.
			if err := s.tick(market); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) tick(market catalog.Market) error {
	snap := s.gather(market)
	depth := s.cfg.DepthDual
	if len(snap.Outcomes) < 2 {
		depth = s.cfg.DepthSingle
	}
	frame := buildFrame(snap, s.det, depth, s.prevLines)
	s.prevLines = len(frame.Lines)
	return s.sink.WriteFrame(frame)
}

// gather reads all shared state once, at tick start. Snapshots landing
// after this point show up next tick.
func (s *Scheduler) gather(market catalog.Market) Snapshot {
	snap := Snapshot{
		Title:      market.Title,
		FeedState:  s.feed.State(),
		LastMsg:    s.feed.LastMessage(),
		Now:        time.Now(),
		StaleAfter: s.cfg.StaleAfter,
	}

	n := len(market.TokenIDs)
	if n > 2 {
		n = 2
	}
	for i := 0; i < n; i++ {
		out := OutcomeState{
			Name:    market.Outcomes[i],
			TokenID: market.TokenIDs[i],
		}
		out.Book, out.Present = s.store.Get(out.TokenID)
		snap.Outcomes = append(snap.Outcomes, out)
	}
	return snap
}

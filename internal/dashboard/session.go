package dashboard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polyterm/polyterm/internal/book"
	"github.com/polyterm/polyterm/internal/catalog"
	"github.com/polyterm/polyterm/internal/clob"
	"github.com/polyterm/polyterm/internal/feed"
	"github.com/polyterm/polyterm/internal/flash"
)

// BookFetcher is the REST bootstrap dependency.
type BookFetcher interface {
	FetchBook(ctx context.Context, tokenID string) (*clob.BookSnapshot, error)
}

var _ BookFetcher = (*clob.Client)(nil)

// Session owns one market's dashboard lifecycle: REST bootstrap of both
// books, the feed subscription, the render loop, and their teardown.
type Session struct {
	ID    uuid.UUID
	store *book.Store
	clob  BookFetcher
	feed  *feed.Client
	det   *flash.Detector
	sink  Sink
	cfg   Config
	log   zerolog.Logger
}

// NewSession creates a session over the shared collaborators.
func NewSession(store *book.Store, bf BookFetcher, fc *feed.Client, det *flash.Detector, sink Sink, cfg Config, log zerolog.Logger) *Session {
	return &Session{
		ID:    uuid.New(),
		store: store,
		clob:  bf,
		feed:  fc,
		det:   det,
		sink:  sink,
		cfg:   cfg,
		log:   log,
	}
}

// Run drives the dashboard for one market until the context is
// cancelled. The subscription, the tick loop, and any pending backoff
// timers are all released before it returns, so switching markets never
// leaks a socket or timer.
func (s *Session) Run(ctx context.Context, market catalog.Market) error {
	log := s.log.With().
		Str("session", s.ID.String()).
		Str("market", market.ID).
		Logger()
	log.Info().Str("title", market.Title).Msg("dashboard starting")

	tokens := market.TokenIDs
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}

	s.det.Reset()
	s.bootstrap(ctx, log, tokens)

	sub, err := s.feed.Subscribe(ctx, tokens)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	sched := NewScheduler(s.store, s.feed, s.det, s.sink, s.cfg, log)
	err = sched.Run(ctx, market)
	log.Info().Msg("dashboard stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bootstrap seeds the store with a one-shot REST book per token. A
// not-found token stays absent, which is its own terminal state; a
// transport failure just means the feed snapshot fills the book in a
// moment later.
func (s *Session) bootstrap(ctx context.Context, log zerolog.Logger, tokens []string) {
	for _, tokenID := range tokens {
		snap, err := s.clob.FetchBook(ctx, tokenID)
		if err != nil {
			if errors.Is(err, clob.ErrNotFound) {
				log.Debug().Str("token", tokenID).Msg("no resting book for token")
			} else {
				log.Warn().Err(err).Str("token", tokenID).Msg("book bootstrap failed, waiting on feed")
			}
			continue
		}
		s.store.Apply(tokenID, snap.Book())
	}
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/polyterm/polyterm/internal/book"
)

const (
	// DefaultURL is the CLOB market feed endpoint.
	DefaultURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultBackoffFactor  = 2.0
	defaultJitter         = 0.2
)

// ReconnectConfig configures the reconnection behavior.
type ReconnectConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64
}

// DefaultReconnectConfig returns the default reconnection configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		Jitter:         defaultJitter,
	}
}

// Client manages the single feed connection for the process. It moves
// through Disconnected -> Connecting -> Subscribed, drops back to
// Disconnected on error, and reconnects with exponential backoff,
// re-sending the full subscription list each time. Snapshots land in
// the book store; the dashboard only ever reads.
// dialer is the handshake seam, satisfied by websocket.Dialer.
type dialer interface {
	DialContext(ctx context.Context, urlStr string, reqHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type Client struct {
	url    string
	store  *book.Store
	log    zerolog.Logger
	dialer dialer
	cfg    ReconnectConfig
	now    func() time.Time

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	tokens  map[string]struct{}
	lastMsg time.Time
	cancel  context.CancelFunc
	running bool
}

// NewClient creates a feed client writing into the given store.
func NewClient(store *book.Store) *Client {
	return &Client{
		url:    DefaultURL,
		store:  store,
		log:    zerolog.Nop(),
		dialer: websocket.DefaultDialer,
		cfg:    DefaultReconnectConfig(),
		now:    time.Now,
		tokens: make(map[string]struct{}),
	}
}

// WithURL sets a custom WebSocket URL.
func (c *Client) WithURL(url string) *Client {
	c.url = url
	return c
}

// WithLogger sets the client logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// WithReconnectConfig sets the reconnection configuration.
func (c *Client) WithReconnectConfig(cfg ReconnectConfig) *Client {
	c.cfg = cfg
	return c
}

// Subscription is a handle over a set of subscribed token ids.
type Subscription struct {
	client *Client
	tokens []string
	once   sync.Once
}

// Unsubscribe removes the handle's tokens from the active set. When the
// set becomes empty the connection is closed and the client returns to
// Disconnected.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.client.unsubscribe(s.tokens) })
}

// Subscribe adds token ids to the active set and ensures the connection
// loop is running. While already subscribed, the full updated list is
// re-sent on the live connection.
func (c *Client) Subscribe(ctx context.Context, tokenIDs []string) (*Subscription, error) {
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("no token ids to subscribe")
	}

	c.mu.Lock()
	for _, id := range tokenIDs {
		c.tokens[id] = struct{}{}
	}
	needLoop := !c.running
	if needLoop {
		c.running = true
		var runCtx context.Context
		runCtx, c.cancel = context.WithCancel(ctx)
		go c.run(runCtx)
	}
	state := c.state
	c.mu.Unlock()

	sub := &Subscription{client: c, tokens: append([]string(nil), tokenIDs...)}
	if !needLoop && state == Subscribed {
		if err := c.sendSubscribe(); err != nil {
			// The read loop will notice the broken connection and
			// reconnect with the updated set.
			c.log.Warn().Err(err).Msg("resubscribe on live connection failed")
		}
	}
	return sub, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastMessage returns when the last feed message arrived. The zero time
// means nothing has arrived yet.
func (c *Client) LastMessage() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMsg
}

// Close tears the connection down and stops the loop.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) unsubscribe(tokenIDs []string) {
	c.mu.Lock()
	for _, id := range tokenIDs {
		delete(c.tokens, id)
	}
	empty := len(c.tokens) == 0
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	for _, id := range tokenIDs {
		c.store.Drop(id)
	}

	if empty {
		if cancel != nil {
			cancel()
		}
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err := c.sendSubscribe(); err != nil {
		c.log.Warn().Err(err).Msg("shrinking subscription failed")
	}
}

// run owns the connection lifecycle until cancelled or the token set
// empties out.
func (c *Client) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.conn = nil
		c.state = Disconnected
		c.mu.Unlock()
	}()

	backoff := c.cfg.InitialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(Connecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Dur("backoff", backoff).Msg("feed dial failed")
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		if err := c.sendSubscribe(); err != nil {
			c.log.Warn().Err(err).Dur("backoff", backoff).Msg("subscribe message failed")
			conn.Close()
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}
		c.setState(Subscribed)
		backoff = c.cfg.InitialBackoff

		// Unblock ReadMessage when the context is cancelled.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		c.readLoop(conn)
		close(done)

		c.mu.Lock()
		c.conn = nil
		empty := len(c.tokens) == 0
		c.mu.Unlock()
		c.setState(Disconnected)

		if empty || ctx.Err() != nil {
			return
		}

		c.log.Info().Dur("backoff", backoff).Msg("feed disconnected, reconnecting")
		if !c.sleep(ctx, backoff) {
			return
		}
		backoff = c.nextBackoff(backoff)
	}
}

// readLoop pumps inbound messages into the store until the connection
// fails. Malformed payloads are dropped, never fatal.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Msg("feed closed")
			} else {
				c.log.Warn().Err(err).Msg("feed read error")
			}
			return
		}

		c.mu.Lock()
		c.lastMsg = c.now()
		c.mu.Unlock()

		updates, dropped, err := Parse(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("unparseable feed payload dropped")
			continue
		}
		if dropped > 0 {
			c.log.Debug().Int("dropped", dropped).Msg("malformed feed updates dropped")
		}
		for i := range updates {
			c.store.Apply(updates[i].AssetID, updates[i].Book())
		}
	}
}

// sendSubscribe writes the full current subscription list.
func (c *Client) sendSubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	ids := make([]string, 0, len(c.tokens))
	for id := range c.tokens {
		ids = append(ids, id)
	}
	msg := SubscribeMessage{AssetsIDs: ids, Type: EventTypeBook}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling subscribe message: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing subscribe message: %w", err)
	}
	return nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// sleep waits for the backoff span with jitter applied, returning false
// if the context was cancelled first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if c.cfg.Jitter > 0 {
		spread := (rand.Float64()*2 - 1) * c.cfg.Jitter
		d = time.Duration(float64(d) * (1 + spread))
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) nextBackoff(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * c.cfg.BackoffFactor)
	if d > c.cfg.MaxBackoff {
		d = c.cfg.MaxBackoff
	}
	return d
}

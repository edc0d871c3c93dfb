// Package flash detects value changes between render ticks and tracks
// the short highlight windows that make them visible.
package flash

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies a value change.
type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Key identifies one observed scalar: a mid price or one side's level
// price. Level i of one token's bids is independent of level i of any
// other token or side.
type Key struct {
	Token string
	Field string // "mid", "bid" or "ask"
	Level int
}

// MidKey keys a token's mid price.
func MidKey(token string) Key {
	return Key{Token: token, Field: "mid"}
}

// BidKey keys one bid level's price.
func BidKey(token string, level int) Key {
	return Key{Token: token, Field: "bid", Level: level}
}

// AskKey keys one ask level's price.
func AskKey(token string, level int) Key {
	return Key{Token: token, Field: "ask", Level: level}
}

// DefaultEpsilon is the change threshold in price-fraction units;
// deltas below it are noise, not movement.
var DefaultEpsilon = decimal.RequireFromString("0.0001")

// DefaultWindow is how long a highlight stays active once opened.
const DefaultWindow = 300 * time.Millisecond

// Detector compares each observed value with the previous one for the
// same key. The stored previous value is updated on every observation,
// whether or not the delta cleared the threshold.
type Detector struct {
	epsilon decimal.Decimal
	window  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	prev    map[Key]decimal.Decimal
	flashes map[Key]state
}

type state struct {
	direction Direction
	expiresAt time.Time
}

// NewDetector creates a detector with the default threshold and window.
func NewDetector() *Detector {
	return &Detector{
		epsilon: DefaultEpsilon,
		window:  DefaultWindow,
		now:     time.Now,
		prev:    make(map[Key]decimal.Decimal),
		flashes: make(map[Key]state),
	}
}

// WithWindow overrides the highlight window.
func (d *Detector) WithWindow(w time.Duration) *Detector {
	d.window = w
	return d
}

// WithClock overrides the time source, for tests.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Observe records a new value for a key and classifies the change
// against the previous one. The first observation of a key yields None.
// An Up or Down result opens a highlight window.
func (d *Detector) Observe(k Key, v decimal.Decimal) Direction {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, seen := d.prev[k]
	d.prev[k] = v

	if !seen {
		return None
	}

	delta := v.Sub(prev)
	if delta.Abs().LessThan(d.epsilon) {
		return None
	}

	dir := Up
	if delta.IsNegative() {
		dir = Down
	}
	d.flashes[k] = state{direction: dir, expiresAt: d.now().Add(d.window)}
	return dir
}

// Active returns the direction of a still-open highlight window for the
// key, or None. Expired windows are removed as they are seen.
func (d *Detector) Active(k Key) Direction {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.flashes[k]
	if !ok {
		return None
	}
	if d.now().After(s.expiresAt) {
		delete(d.flashes, k)
		return None
	}
	return s.direction
}

// Reset drops all history and open windows, used on market switch.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = make(map[Key]decimal.Decimal)
	d.flashes = make(map[Key]state)
}

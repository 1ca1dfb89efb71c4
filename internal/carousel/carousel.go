// Package carousel models an index rotating over a fixed-size list with manual
// navigation and an optional autoplay timer.
package carousel

import (
	"errors"
	"sync"
	"time"
)

// ErrEmpty is returned when a carousel is created without items.
var ErrEmpty = errors.New("carousel: item count must be positive")

// ErrInterval is returned when autoplay is requested with a non-positive period.
var ErrInterval = errors.New("carousel: autoplay interval must be positive")

// Policy decides whether manual navigation suppresses autoplay.
type Policy int

const (
	// AutoplayAlways keeps advancing regardless of user interaction.
	AutoplayAlways Policy = iota
	// AutoplayUntilInteraction latches autoplay off after the first manual move.
	AutoplayUntilInteraction
)

func (p Policy) String() string {
	switch p {
	case AutoplayAlways:
		return "always"
	case AutoplayUntilInteraction:
		return "until-interaction"
	default:
		return "unknown"
	}
}

// Ticker is the subset of time.Ticker used for autoplay.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFunc constructs a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) Chan() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()                  { r.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Option customises a Carousel.
type Option func(*Carousel)

// WithIndex restores the active index (clamped into range).
func WithIndex(i int) Option {
	return func(c *Carousel) { c.index = i }
}

// WithControlled restores the "user took control" latch.
func WithControlled(controlled bool) Option {
	return func(c *Carousel) { c.controlled = controlled }
}

// WithTicker overrides the ticker factory used by Autoplay.
func WithTicker(f TickerFunc) Option {
	return func(c *Carousel) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// Carousel is owned by exactly one component instance. It is safe for use by
// the autoplay goroutine and request handlers at the same time.
type Carousel struct {
	mu         sync.Mutex
	count      int
	index      int
	policy     Policy
	controlled bool

	newTicker TickerFunc
	stop      chan struct{}
	done      chan struct{}
	running   bool
}

// New creates a carousel over count items starting at index 0.
func New(count int, policy Policy, opts ...Option) (*Carousel, error) {
	if count < 1 {
		return nil, ErrEmpty
	}
	c := &Carousel{
		count:     count,
		policy:    policy,
		newTicker: NewTimeTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.index = clamp(c.index, count)
	if policy == AutoplayAlways {
		c.controlled = false
	}
	return c, nil
}

// Count returns the number of items.
func (c *Carousel) Count() int { return c.count }

// Policy returns the autoplay policy chosen for this instance.
func (c *Carousel) Policy() Policy { return c.policy }

// Index returns the active index.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Controlled reports whether a manual move latched autoplay off.
func (c *Carousel) Controlled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlled
}

// AutoplayActive reports whether timer ticks still advance the carousel.
func (c *Carousel) AutoplayActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoplayAllowed()
}

// Next moves forward one item, wrapping at the end.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.index = (c.index + 1) % c.count
	return c.index
}

// Prev moves back one item, wrapping at the start.
func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.index = (c.index - 1 + c.count) % c.count
	return c.index
}

// GoTo jumps to index i. Out-of-range indices are clamped.
func (c *Carousel) GoTo(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.index = clamp(i, c.count)
	return c.index
}

// Tick performs one automatic advance if the policy still allows it and
// reports whether the index moved.
func (c *Carousel) Tick() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.autoplayAllowed() {
		return c.index, false
	}
	c.index = (c.index + 1) % c.count
	return c.index, true
}

// Autoplay starts advancing every interval and calls onAdvance with the new
// index after each automatic move. Calling Autoplay on a running carousel
// restarts the timer. onAdvance must not call Stop.
func (c *Carousel) Autoplay(interval time.Duration, onAdvance func(int)) error {
	if interval <= 0 {
		return ErrInterval
	}
	c.Stop()

	c.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done, c.running = stop, done, true
	ticker := c.newTicker(interval)
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				c.mu.Lock()
				select {
				case <-stop:
					c.mu.Unlock()
					return
				default:
				}
				if !c.autoplayAllowed() {
					c.mu.Unlock()
					continue
				}
				c.index = (c.index + 1) % c.count
				idx := c.index
				c.mu.Unlock()
				if onAdvance != nil {
					onAdvance(idx)
				}
			}
		}
	}()
	return nil
}

// Stop cancels autoplay. Once Stop returns no further onAdvance call happens.
func (c *Carousel) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	stop, done := c.stop, c.done
	c.running = false
	close(stop)
	c.mu.Unlock()
	<-done
}

// Running reports whether an autoplay timer is active.
func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Dot is a rendered indicator for one item.
type Dot struct {
	Index  int
	Active bool
}

// Dots returns indicator state for every item.
func (c *Carousel) Dots() []Dot {
	c.mu.Lock()
	defer c.mu.Unlock()
	dots := make([]Dot, c.count)
	for i := range dots {
		dots[i] = Dot{Index: i, Active: i == c.index}
	}
	return dots
}

// PrevIndex and NextIndex return neighbours without moving.
func (c *Carousel) PrevIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.index - 1 + c.count) % c.count
}

func (c *Carousel) NextIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.index + 1) % c.count
}

func (c *Carousel) touch() {
	if c.policy == AutoplayUntilInteraction {
		c.controlled = true
	}
}

func (c *Carousel) autoplayAllowed() bool {
	return c.policy == AutoplayAlways || !c.controlled
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

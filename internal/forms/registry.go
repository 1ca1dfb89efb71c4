package forms

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultIdleTTL bounds how long an untouched form instance is kept.
const DefaultIdleTTL = 30 * time.Minute

// ErrNoSession is returned when a form is requested without an owner id.
var ErrNoSession = errors.New("forms: session id required")

type registryKey struct {
	session string
	kind    Kind
}

// Registry owns one Form per (visitor session, kind).
type Registry struct {
	mu     sync.Mutex
	forms  map[registryKey]*Form
	sender Sender
	ttl    time.Duration
	clock  Clock
	opts   []FormOption
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL sets how long idle forms survive a sweep.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithFormOptions forwards options to every form the registry creates.
func WithFormOptions(opts ...FormOption) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithRegistryClock sets the clock used for sweeping and for forms.
func WithRegistryClock(c Clock) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// NewRegistry creates an empty registry delivering through sender.
func NewRegistry(sender Sender, opts ...RegistryOption) *Registry {
	r := &Registry{
		forms:  map[registryKey]*Form{},
		sender: sender,
		ttl:    DefaultIdleTTL,
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the form of kind owned by sessionID, creating it on first use.
func (r *Registry) Get(sessionID string, kind Kind) (*Form, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if _, err := DefinitionFor(kind); err != nil {
		return nil, err
	}
	key := registryKey{session: sessionID, kind: kind}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.forms[key]; ok {
		return f, nil
	}
	opts := append([]FormOption{WithClock(r.clock)}, r.opts...)
	f, err := New(kind, r.sender, opts...)
	if err != nil {
		return nil, err
	}
	r.forms[key] = f
	return f, nil
}

// Len returns the number of live form instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep discards forms idle for longer than the TTL and reports how many
// were removed. Forms with an in-flight submission or pending reset stay.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, f := range r.forms {
		if f.busy() || f.idleSince().After(cutoff) {
			continue
		}
		f.Close()
		delete(r.forms, key)
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = r.ttl / 2
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close cancels every pending reset timer and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, f := range r.forms {
		f.Close()
		delete(r.forms, key)
	}
}

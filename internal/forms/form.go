// Package forms implements the contact and appointment forms: per-instance
// drafts, submission status and delivery to the external webhook.
package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultResetDelay is how long the success panel stays before the form
// returns to its empty state.
const DefaultResetDelay = 5 * time.Second

// ErrClosed is returned by Submit once the form has been discarded.
var ErrClosed = errors.New("forms: form closed")

// ValidationError lists required fields left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "forms: missing required fields: " + strings.Join(e.Missing, ", ")
}

// Has reports whether field is among the missing ones.
func (e *ValidationError) Has(field string) bool {
	for _, m := range e.Missing {
		if m == field {
			return true
		}
	}
	return false
}

// SubmitMeta carries request context added to every payload.
type SubmitMeta struct {
	Source string
	Locale string
}

// Snapshot is a consistent copy of a form for rendering.
type Snapshot struct {
	Definition   Definition
	Draft        Draft
	Status       Status
	SubmissionID string
}

// Form is one form instance. Its draft and status are never shared.
type Form struct {
	mu         sync.Mutex
	def        Definition
	draft      Draft
	status     Status
	lastID     string
	sender     Sender
	clock      Clock
	resetDelay time.Duration
	resetTimer Timer
	generation uint64
	lastUsed   time.Time
	closed     bool
	newID      func() string
}

// FormOption customises a Form.
type FormOption func(*Form)

// WithClock injects the clock used for reset timers.
func WithClock(c Clock) FormOption {
	return func(f *Form) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithResetDelay overrides DefaultResetDelay.
func WithResetDelay(d time.Duration) FormOption {
	return func(f *Form) {
		if d > 0 {
			f.resetDelay = d
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(gen func() string) FormOption {
	return func(f *Form) {
		if gen != nil {
			f.newID = gen
		}
	}
}

// New creates an idle form of kind with an empty draft.
func New(kind Kind, sender Sender, opts ...FormOption) (*Form, error) {
	def, err := DefinitionFor(kind)
	if err != nil {
		return nil, err
	}
	f := &Form{
		def:        def,
		draft:      NewDraft(),
		status:     idle(),
		sender:     sender,
		clock:      SystemClock(),
		resetDelay: DefaultResetDelay,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastUsed = f.clock.Now()
	return f, nil
}

// Kind returns the form kind.
func (f *Form) Kind() Kind { return f.def.Kind }

// Snapshot copies the current draft and status.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Definition:   f.def,
		Draft:        f.draft.Clone(),
		Status:       f.status,
		SubmissionID: f.lastID,
	}
}

// Status returns the current submission status.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Update applies input events to the draft.
func (f *Form) Update(values map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Apply(f.def, values)
	f.lastUsed = f.clock.Now()
}

// Submit validates and delivers the draft. Duplicate calls are not
// deduplicated: every call that passes validation issues its own POST.
func (f *Form) Submit(ctx context.Context, meta SubmitMeta) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.cancelResetLocked()
	f.status = Status{State: StatePending}
	f.lastUsed = f.clock.Now()

	if missing := f.draft.Missing(f.def); len(missing) > 0 {
		f.status = idle()
		f.mu.Unlock()
		return &ValidationError{Missing: missing}
	}

	payload := f.payloadLocked(meta)
	f.lastID = payload.SubmissionID
	f.mu.Unlock()

	var err error
	if f.sender == nil {
		err = ErrWebhookNotConfigured
	} else {
		err = f.sender.Send(ctx, payload)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if err != nil {
		f.status = failed(MessageSubmitFailed)
		return fmt.Errorf("submit %s: %w", f.def.Kind, err)
	}
	f.status = Status{State: StateSucceeded}
	f.scheduleResetLocked()
	return nil
}

// Close cancels a pending reset. The form rejects further submissions.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cancelResetLocked()
}

func (f *Form) idleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed
}

func (f *Form) busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status.IsPending() || f.resetTimer != nil
}

func (f *Form) payloadLocked(meta SubmitMeta) Payload {
	fields := make(map[string]any, len(f.def.Fields))
	for _, field := range f.def.Fields {
		if field.IsBool() {
			fields[field.Name] = f.draft.Checked(field.Name)
			continue
		}
		fields[field.Name] = f.draft.Value(field.Name)
	}
	return Payload{
		FormType:     f.def.FormType,
		Timestamp:    f.clock.Now().UTC(),
		Source:       meta.Source,
		Locale:       meta.Locale,
		SubmissionID: f.newID(),
		Fields:       fields,
	}
}

func (f *Form) scheduleResetLocked() {
	f.generation++
	gen := f.generation
	f.resetTimer = f.clock.AfterFunc(f.resetDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed || f.generation != gen {
			return
		}
		f.draft = NewDraft()
		f.status = idle()
		f.resetTimer = nil
	})
}

func (f *Form) cancelResetLocked() {
	f.generation++
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}

package forms

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

type recordingSender struct {
	mu       sync.Mutex
	payloads []Payload
	err      error
}

func (s *recordingSender) Send(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func validContact() url.Values {
	return url.Values{
		"name":    {"Ayşe Demir"},
		"email":   {"ayse@example.com"},
		"phone":   {"+49 30 1234567"},
		"subject": {"consultation"},
		"message": {"Ich interessiere mich für eine FUE-Behandlung."},
		"privacy": {"on"},
	}
}

func TestSubmitSuccessResetsAfterDelay(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{}
	f, err := New(KindContact, sender, WithClock(clock), WithIDGenerator(func() string { return "sub-1" }))
	require.NoError(t, err)

	f.Update(validContact())
	require.NoError(t, f.Submit(context.Background(), SubmitMeta{Source: "https://dion.example/contact", Locale: "de"}))

	snap := f.Snapshot()
	require.True(t, snap.Status.IsSucceeded())
	require.Equal(t, "Ayşe Demir", snap.Draft.Value("name"))
	require.Equal(t, "sub-1", snap.SubmissionID)

	clock.Advance(DefaultResetDelay - time.Millisecond)
	require.True(t, f.Status().IsSucceeded())

	clock.Advance(time.Millisecond)
	snap = f.Snapshot()
	require.True(t, snap.Status.IsIdle())
	require.True(t, snap.Draft.IsEmpty())

	require.Equal(t, 1, sender.count())
	p := sender.payloads[0]
	require.Equal(t, "contact_form", p.FormType)
	require.Equal(t, "https://dion.example/contact", p.Source)
	require.Equal(t, "de", p.Locale)
	require.Equal(t, true, p.Fields["privacy"])
	require.Equal(t, clock.now.Add(-DefaultResetDelay), p.Timestamp)
}

func TestDuplicateSubmitsAreNotDeduplicated(t *testing.T) {
	// Known gap: two clicks produce two webhook deliveries.
	clock := newFakeClock()
	sender := &recordingSender{}
	f, err := New(KindContact, sender, WithClock(clock))
	require.NoError(t, err)

	f.Update(validContact())
	require.NoError(t, f.Submit(context.Background(), SubmitMeta{}))
	require.NoError(t, f.Submit(context.Background(), SubmitMeta{}))
	require.Equal(t, 2, sender.count())
	require.NotEqual(t, sender.payloads[0].SubmissionID, sender.payloads[1].SubmissionID)
}

func TestSubmitFailureDoesNotReset(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{err: &SubmitError{StatusCode: 502}}
	f, err := New(KindContact, sender, WithClock(clock))
	require.NoError(t, err)

	f.Update(validContact())
	err = f.Submit(context.Background(), SubmitMeta{})
	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	require.Equal(t, 502, subErr.StatusCode)

	clock.Advance(time.Hour)
	snap := f.Snapshot()
	require.True(t, snap.Status.IsFailed())
	require.Equal(t, MessageSubmitFailed, snap.Status.Message)
	require.Equal(t, "ayse@example.com", snap.Draft.Value("email"))
}

func TestMissingRequiredFieldsSendNothing(t *testing.T) {
	sender := &recordingSender{}
	f, err := New(KindAppointment, sender, WithClock(newFakeClock()))
	require.NoError(t, err)

	f.Update(url.Values{"name": {"Max"}, "email": {"max@example.com"}})
	err = f.Submit(context.Background(), SubmitMeta{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.True(t, vErr.Has("phone"))
	require.True(t, vErr.Has("appointmentType"))
	require.True(t, vErr.Has("privacy"))
	require.False(t, vErr.Has("message"))
	require.True(t, f.Status().IsIdle())
	require.Zero(t, sender.count())
}

func TestResubmitAfterSuccessCancelsStaleReset(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{}
	f, err := New(KindContact, sender, WithClock(clock), WithResetDelay(5*time.Second))
	require.NoError(t, err)

	f.Update(validContact())
	require.NoError(t, f.Submit(context.Background(), SubmitMeta{}))
	clock.Advance(3 * time.Second)

	sender.err = errors.New("connection refused")
	require.Error(t, f.Submit(context.Background(), SubmitMeta{}))

	clock.Advance(10 * time.Second)
	require.True(t, f.Status().IsFailed())
}

func TestCloseCancelsPendingReset(t *testing.T) {
	clock := newFakeClock()
	f, err := New(KindContact, &recordingSender{}, WithClock(clock))
	require.NoError(t, err)
	f.Update(validContact())
	require.NoError(t, f.Submit(context.Background(), SubmitMeta{}))

	f.Close()
	clock.Advance(time.Minute)
	require.True(t, f.Status().IsSucceeded())
	require.ErrorIs(t, f.Submit(context.Background(), SubmitMeta{}), ErrClosed)
}

func TestNilSenderFails(t *testing.T) {
	f, err := New(KindContact, nil, WithClock(newFakeClock()))
	require.NoError(t, err)
	f.Update(validContact())
	require.ErrorIs(t, f.Submit(context.Background(), SubmitMeta{}), ErrWebhookNotConfigured)
	require.True(t, f.Status().IsFailed())
}

func TestDraftApplyStripsMarkupAndUnknownOptions(t *testing.T) {
	def, err := DefinitionFor(KindContact)
	require.NoError(t, err)
	d := NewDraft()
	d.Apply(def, url.Values{
		"name":    {"  <b>Jonas</b> & Co  "},
		"subject": {"free-hair"},
		"privacy": {"false"},
		"unknown": {"x"},
	})
	require.Equal(t, "Jonas & Co", d.Value("name"))
	require.Empty(t, d.Value("subject"))
	require.False(t, d.Checked("privacy"))
	_, ok := d.Values["unknown"]
	require.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Contact ")
	require.NoError(t, err)
	require.Equal(t, KindContact, k)

	_, err = ParseKind("newsletter")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistryScopesFormsPerSession(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(&recordingSender{}, WithRegistryClock(clock), WithIdleTTL(time.Minute))
	defer reg.Close()

	a, err := reg.Get("session-a", KindContact)
	require.NoError(t, err)
	again, err := reg.Get("session-a", KindContact)
	require.NoError(t, err)
	require.Same(t, a, again)

	b, err := reg.Get("session-b", KindContact)
	require.NoError(t, err)
	require.NotSame(t, a, b)

	a.Update(url.Values{"name": {"A"}})
	require.Empty(t, b.Snapshot().Draft.Value("name"))

	_, err = reg.Get("", KindContact)
	require.ErrorIs(t, err, ErrNoSession)
	_, err = reg.Get("session-a", Kind("quiz"))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistrySweepKeepsBusyForms(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(&recordingSender{}, WithRegistryClock(clock), WithIdleTTL(time.Minute),
		WithFormOptions(WithResetDelay(10*time.Minute)))
	defer reg.Close()

	_, err := reg.Get("idle", KindContact)
	require.NoError(t, err)
	busyForm, err := reg.Get("busy", KindContact)
	require.NoError(t, err)
	busyForm.Update(validContact())
	require.NoError(t, busyForm.Submit(context.Background(), SubmitMeta{}))

	clock.now = clock.now.Add(2 * time.Minute)
	require.Equal(t, 1, reg.Sweep())
	require.Equal(t, 1, reg.Len())
}

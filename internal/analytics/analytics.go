// Package analytics exposes tag-manager configuration to templates and an
// append-only event queue rendered as dataLayer pushes.
package analytics

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

// Config holds client instrumentation configuration surfaced to templates.
type Config struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	GTMContainerID   string // e.g. GTM-XXXXXXX
	Debug            bool
}

// FromConfig builds Config from the analytics section of the site config.
func FromConfig(c config.AnalyticsConfig) Config {
	return Config{
		GA4MeasurementID: strings.TrimSpace(c.GA4MeasurementID),
		GTMContainerID:   strings.TrimSpace(c.GTMContainerID),
		Debug:            c.Debug,
	}
}

// Enabled reports whether any tag snippet should be emitted.
func (c Config) Enabled() bool {
	return c.GA4MeasurementID != "" || c.GTMContainerID != ""
}

// Event is one dataLayer entry.
type Event struct {
	Name   string
	Fields map[string]any
}

// MarshalJSON emits {"event": name, ...fields}.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["event"] = e.Name
	return json.Marshal(out)
}

// Queue collects events for one response. Components only append.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// Push appends an event. A nil queue discards it.
func (q *Queue) Push(name string, fields map[string]any) {
	if q == nil || strings.TrimSpace(name) == "" {
		return
	}
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	q.mu.Lock()
	q.events = append(q.events, Event{Name: name, Fields: cp})
	q.mu.Unlock()
}

// Events returns a copy of the queued events in push order.
func (q *Queue) Events() []Event {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}

// Script renders the queue as dataLayer.push statements.
func (q *Queue) Script() template.JS {
	events := q.Events()
	if len(events) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("window.dataLayer=window.dataLayer||[];")
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			continue
		}
		sb.WriteString("window.dataLayer.push(")
		sb.Write(raw)
		sb.WriteString(");")
	}
	return template.JS(sb.String())
}

type ctxKey struct{}

// WithQueue attaches q to ctx.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, ctxKey{}, q)
}

// FromContext returns the request queue, or nil.
func FromContext(ctx context.Context) *Queue {
	q, _ := ctx.Value(ctxKey{}).(*Queue)
	return q
}

// Push appends to the queue stored in ctx.
func Push(ctx context.Context, name string, fields map[string]any) {
	FromContext(ctx).Push(name, fields)
}

// Middleware gives every request its own queue.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithQueue(r.Context(), &Queue{})))
	})
}

// TriggerHeader encodes events as an HX-Trigger header value so htmx
// responses can forward them to the client-side dataLayer bridge.
func TriggerHeader(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	payload := map[string]any{"analytics": events}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(raw)
}

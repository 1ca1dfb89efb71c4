package handlers

import (
	"html/template"

	"github.com/manuwestern/dionwebsite/internal/analytics"
)

// Analytics holds client instrumentation configuration surfaced to templates
// together with the events queued while handling the request.
type Analytics struct {
	analytics.Config
	DataLayer template.JS
}

// NewAnalytics snapshots q for the layout.
func NewAnalytics(cfg analytics.Config, q *analytics.Queue) Analytics {
	a := Analytics{Config: cfg}
	if q != nil {
		a.DataLayer = q.Script()
	}
	return a
}

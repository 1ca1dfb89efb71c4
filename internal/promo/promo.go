// Package promo decides when the promotional popup is offered.
package promo

import (
	"strings"
	"time"

	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

// Policy holds the popup switch and display delay.
type Policy struct {
	Enabled bool
	Delay   time.Duration
}

// FromConfig adapts the configuration section.
func FromConfig(cfg config.PromoConfig) Policy {
	return Policy{Enabled: cfg.Enabled, Delay: cfg.Delay}
}

// Popup is the view model of a visible popup.
type Popup struct {
	Title    string
	Text     string
	CTALabel string
	CTAHref  string
	DelayMS  int64
}

// Visible reports whether the popup should render for path. Routes are
// matched exactly or on a segment boundary; an empty route list means home only.
func (p Policy) Visible(promo content.Promo, path string, dismissed bool) bool {
	if !p.Enabled || dismissed {
		return false
	}
	if strings.TrimSpace(promo.Title) == "" && strings.TrimSpace(promo.Text) == "" {
		return false
	}
	routes := promo.Routes
	if len(routes) == 0 {
		routes = []string{"/"}
	}
	for _, r := range routes {
		if matchRoute(r, path) {
			return true
		}
	}
	return false
}

// Build returns the popup for path, or nil when it stays hidden.
func (p Policy) Build(promo content.Promo, path string, dismissed bool) *Popup {
	if !p.Visible(promo, path, dismissed) {
		return nil
	}
	delay := p.Delay
	if delay < 0 {
		delay = 0
	}
	return &Popup{
		Title:    promo.Title,
		Text:     promo.Text,
		CTALabel: promo.CTALabel,
		CTAHref:  promo.CTAHref,
		DelayMS:  delay.Milliseconds(),
	}
}

func matchRoute(route, path string) bool {
	if route == "/" {
		return path == "/" || path == ""
	}
	route = strings.TrimRight(route, "/")
	return path == route || strings.HasPrefix(path, route+"/")
}

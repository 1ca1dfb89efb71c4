// Package device decides whether a visitor should be sent to the
// mobile-optimised variant of the site.
package device

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultBreakpoint is the viewport width below which a device counts as mobile.
const DefaultBreakpoint = 768

// Viewport hint headers sent by browsers that honour Accept-CH.
const (
	HeaderViewportWidth       = "Sec-CH-Viewport-Width"
	HeaderLegacyViewportWidth = "Viewport-Width"
	HeaderMobileHint          = "Sec-CH-UA-Mobile"
)

var mobileTokens = []string{
	"android",
	"webos",
	"iphone",
	"ipad",
	"ipod",
	"blackberry",
	"iemobile",
	"opera mini",
	"mobile",
}

// IsMobileUserAgent reports whether ua contains a known mobile token.
func IsMobileUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	if ua == "" {
		return false
	}
	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// Signals are the inputs of the mobile decision.
type Signals struct {
	UserAgent string
	// ViewportWidth is zero when the client sent no hint.
	ViewportWidth int
	MobileHint    bool
}

// SignalsFromRequest reads the user agent and viewport client hints.
func SignalsFromRequest(r *http.Request) Signals {
	s := Signals{UserAgent: r.UserAgent()}
	for _, h := range []string{HeaderViewportWidth, HeaderLegacyViewportWidth} {
		if w, ok := parseWidth(r.Header.Get(h)); ok {
			s.ViewportWidth = w
			break
		}
	}
	s.MobileHint = strings.TrimSpace(r.Header.Get(HeaderMobileHint)) == "?1"
	return s
}

func parseWidth(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f), true
}

// Policy holds the redirect rule.
type Policy struct {
	MobilePath string
	Breakpoint int
	// Excluded path prefixes never redirect.
	Excluded []string
}

// IsMobile evaluates mobile user agent OR narrow viewport.
func (p Policy) IsMobile(s Signals) bool {
	if IsMobileUserAgent(s.UserAgent) || s.MobileHint {
		return true
	}
	bp := p.Breakpoint
	if bp <= 0 {
		bp = DefaultBreakpoint
	}
	return s.ViewportWidth > 0 && s.ViewportWidth < bp
}

// IsExcluded reports whether path is exempt from redirection.
func (p Policy) IsExcluded(path string) bool {
	if p.MobilePath != "" && hasPathPrefix(path, p.MobilePath) {
		return true
	}
	for _, prefix := range p.Excluded {
		if prefix != "" && hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Mobile   bool
	Redirect bool
	Target   string
}

// Decide evaluates the rule for path.
func (p Policy) Decide(path string, s Signals) Decision {
	d := Decision{Mobile: p.IsMobile(s)}
	if d.Mobile && p.MobilePath != "" && !p.IsExcluded(path) {
		d.Redirect = true
		d.Target = p.MobilePath
	}
	return d
}

func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return path == "/"
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

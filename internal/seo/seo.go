package seo

import (
	"net/url"
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	Locale      string
	SiteName    string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Alternate is one hreflang link.
type Alternate struct {
	Lang string
	Href string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
}

// ogLocales maps site languages to Open Graph locale codes.
var ogLocales = map[string]string{
	"de": "de_DE",
	"en": "en_US",
	"tr": "tr_TR",
}

// OGLocale returns the Open Graph locale for lang.
func OGLocale(lang string) string {
	if v, ok := ogLocales[lang]; ok {
		return v
	}
	return lang
}

// Absolute joins base and p into an absolute URL. Absolute p is returned as is.
func Absolute(base, p string) string {
	if p == "" {
		return ""
	}
	if u, err := url.Parse(p); err == nil && u.IsAbs() {
		return p
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}

// Alternates builds hreflang links for every locale plus x-default. The
// default locale keeps the bare path; others carry ?hl=.
func Alternates(base, path string, locales []string, defaultLocale string) []Alternate {
	if path == "" {
		path = "/"
	}
	out := make([]Alternate, 0, len(locales)+1)
	for _, l := range locales {
		out = append(out, Alternate{Lang: l, Href: LocalizedURL(base, path, l, defaultLocale)})
	}
	out = append(out, Alternate{Lang: "x-default", Href: Absolute(base, path)})
	return out
}

// LocalizedURL returns the canonical URL of path in lang.
func LocalizedURL(base, path, lang, defaultLocale string) string {
	abs := Absolute(base, path)
	if lang == "" || lang == defaultLocale {
		return abs
	}
	return abs + "?hl=" + url.QueryEscape(lang)
}

// Truncate shortens s to limit runes for meta descriptions.
func Truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

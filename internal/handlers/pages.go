package handlers

import (
	"html/template"

	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/nav"
	"github.com/manuwestern/dionwebsite/internal/page"
	"github.com/manuwestern/dionwebsite/internal/promo"
	"github.com/manuwestern/dionwebsite/internal/seo"
)

// PageData is the view model for every page using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Locales   []LocaleLink
	SEO       SEOData
	Analytics Analytics
	CSRFToken string

	Path        string
	Nav         []nav.RenderedItem
	FooterNav   []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Clinic      content.Clinic
	Year        int

	// Sections is the composed body; Document is set on markdown pages.
	Sections []SectionBlock
	Document *content.Page
	Promo    *promo.Popup
	Mobile   bool
}

// SectionBlock binds a composed section to the request language so section
// templates can translate without reaching into the page.
type SectionBlock struct {
	page.Section
	Lang string
}

// LocaleLink is one entry of the language switcher.
type LocaleLink struct {
	Code   string
	Href   string
	Active bool
}

// SEOData carries meta tags plus prepared JSON-LD blocks.
type SEOData struct {
	seo.Meta
	JSONLD []template.JS
}

// AddJSONLD appends a schema.org object; values that fail to encode are skipped.
func (s *SEOData) AddJSONLD(v any) {
	if raw := seo.JSON(v); raw != "" {
		s.JSONLD = append(s.JSONLD, template.JS(raw))
	}
}

// Blocks wraps composed sections for rendering in lang.
func Blocks(sections []page.Section, lang string) []SectionBlock {
	out := make([]SectionBlock, len(sections))
	for i, s := range sections {
		out[i] = SectionBlock{Section: s, Lang: lang}
	}
	return out
}

// LocaleLinks builds the language switcher for path.
func LocaleLinks(path string, locales []string, current string) []LocaleLink {
	out := make([]LocaleLink, 0, len(locales))
	for _, l := range locales {
		out = append(out, LocaleLink{Code: l, Href: path + "?hl=" + l, Active: l == current})
	}
	return out
}

// Fragment is the data of an htmx fragment: the view plus the language its
// labels render in.
type Fragment struct {
	Lang string
	View any
}

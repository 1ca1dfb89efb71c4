package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/prices"
	LabelKey string // i18n key, e.g. "nav.prices"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/treatments", LabelKey: "nav.treatments"},
	{Path: "/before-after", LabelKey: "nav.beforeafter"},
	{Path: "/prices", LabelKey: "nav.prices"},
	{Path: "/contact", LabelKey: "nav.contact"},
}

// Footer lists legal links.
var Footer = []Item{
	{Path: "/legal/imprint", LabelKey: "nav.imprint"},
	{Path: "/legal/privacy", LabelKey: "nav.privacy"},
}

// sectionKeys labels top-level segments that are not in Main.
var sectionKeys = map[string]string{
	"legal":       "nav.legal",
	"city":        "nav.cities",
	"appointment": "nav.appointment",
	"mobile":      "nav.home",
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	return build(Main, currentPath)
}

// BuildFooter renders the footer links.
func BuildFooter(currentPath string) []RenderedItem {
	return build(Footer, currentPath)
}

func build(items []Item, currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	out := make([]RenderedItem, 0, len(items))
	for _, it := range items {
		out = append(out, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return out
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/prices" or "/prices/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path. The last
// crumb uses leafLabel when given.
func Breadcrumbs(currentPath, leafLabel string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	href := ""
	for i, part := range parts {
		if part == "" {
			continue
		}
		href += "/" + part
		c := Crumb{Href: href, Label: titleFromSegment(part), Active: i == len(parts)-1}
		if i == 0 {
			c.LabelKey = labelKeyFor(href, part)
		}
		if c.Active && leafLabel != "" {
			c.LabelKey = ""
			c.Label = leafLabel
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}

func labelKeyFor(top, segment string) string {
	for _, it := range Main {
		if it.Path == top {
			return it.LabelKey
		}
	}
	return sectionKeys[segment]
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

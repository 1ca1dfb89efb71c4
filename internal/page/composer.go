// Package page assembles routes into ordered section lists, each wrapped in
// a container treatment.
package page

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// ErrUnknownRoute is returned when no layout exists for a route key.
var ErrUnknownRoute = errors.New("page: unknown route")

// Spec describes one slot in a route layout.
type Spec struct {
	Kind      Kind      `yaml:"kind"`
	Treatment Treatment `yaml:"treatment"`
	// Heading is a translation key; empty uses the section default.
	Heading string `yaml:"heading"`
	// Slug selects the document of a markdown section.
	Slug string `yaml:"slug"`
	// Anchor overrides the generated element id.
	Anchor string `yaml:"anchor"`
}

// Layouts maps route keys to their ordered section specs.
type Layouts map[string][]Spec

// LoadLayouts reads and validates a layouts YAML file.
func LoadLayouts(path string) (Layouts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("page: read layouts: %w", err)
	}
	return ParseLayouts(raw)
}

// ParseLayouts decodes and validates layouts.
func ParseLayouts(raw []byte) (Layouts, error) {
	var l Layouts
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("page: parse layouts: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate rejects unknown kinds and markdown sections without a slug.
func (l Layouts) Validate() error {
	for _, route := range l.Routes() {
		for i, s := range l[route] {
			if !s.Kind.Valid() {
				return fmt.Errorf("page: %s[%d]: unknown section kind %q", route, i, s.Kind)
			}
			if s.Kind == KindMarkdown && s.Slug == "" {
				return fmt.Errorf("page: %s[%d]: markdown section needs a slug", route, i)
			}
		}
	}
	return nil
}

// Routes lists route keys in sorted order.
func (l Layouts) Routes() []string {
	out := make([]string, 0, len(l))
	for k := range l {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Section is one rendered slot.
type Section struct {
	Spec
	ID         string
	Index      int
	Visibility *VisibilityFlag
	Data       any
}

// Class returns the container classes for the section.
func (s Section) Class() string { return "section " + s.Treatment.Class() }

// Composition is the ordered section list of one route.
type Composition struct {
	Route    string
	Sections []Section
	// Omitted lists kinds skipped because their content was missing.
	Omitted []Kind
}

// Has reports whether a section of kind made it into the composition.
func (c Composition) Has(kind Kind) bool {
	for _, s := range c.Sections {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// Resolver loads the view data of a section. ok=false means the content is
// missing and the section is left out.
type Resolver func(ctx context.Context, spec Spec) (data any, ok bool, err error)

// Compose builds the composition of route. Missing content degrades to an
// omitted section with a logged warning; resolver errors abort.
func (l Layouts) Compose(ctx context.Context, route string, resolve Resolver) (Composition, error) {
	specs, ok := l[route]
	if !ok {
		return Composition{}, fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}
	comp := Composition{Route: route, Sections: make([]Section, 0, len(specs))}
	seen := map[string]int{}
	for _, spec := range specs {
		data, ok, err := resolve(ctx, spec)
		if err != nil {
			return Composition{}, fmt.Errorf("page: %s section %s: %w", route, spec.Kind, err)
		}
		if !ok {
			requestctx.Logger(ctx).Warn("section omitted: content missing",
				zap.String("route", route),
				zap.String("section", string(spec.Kind)),
			)
			comp.Omitted = append(comp.Omitted, spec.Kind)
			continue
		}
		id := spec.Anchor
		if id == "" {
			id = string(spec.Kind)
			if n := seen[id]; n > 0 {
				id += "-" + strconv.Itoa(n+1)
			}
			seen[string(spec.Kind)]++
		}
		sec := Section{
			Spec:       spec,
			ID:         id,
			Index:      len(comp.Sections),
			Visibility: &VisibilityFlag{},
			Data:       data,
		}
		if sec.Index == 0 {
			// above the fold, so it never animates in
			sec.Visibility.Reveal()
		}
		comp.Sections = append(comp.Sections, sec)
	}
	return comp, nil
}

// Package content loads the clinic's localized content: structured YAML
// bundles for sections and markdown documents for treatment and legal pages.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// ErrNotFound is returned when a bundle or page does not exist in any locale.
var ErrNotFound = errors.New("content: not found")

const (
	defaultDir      = "content"
	defaultCacheTTL = 5 * time.Minute

	// KindPages and KindTreatments are the markdown collections.
	KindPages      = "pages"
	KindTreatments = "treatments"
)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// Provider reads content from a directory with a TTL cache in front.
type Provider struct {
	dir      string
	fallback string
	ttl      time.Duration
	now      func() time.Time

	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu      sync.RWMutex
	bundles map[string]cacheEntry[*Bundle]
	pages   map[string]cacheEntry[Page]
}

// Option customises a Provider.
type Option func(*Provider)

// WithCacheTTL overrides the cache duration. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(p *Provider) { p.ttl = d }
}

// WithNow overrides the clock used for cache expiry.
func WithNow(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvider reads content below dir. Locales without their own files fall
// back to fallbackLang.
func NewProvider(dir, fallbackLang string, opts ...Option) *Provider {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDir
	}
	p := &Provider{
		dir:      dir,
		fallback: fallbackLang,
		ttl:      defaultCacheTTL,
		now:      time.Now,
		md:       newMarkdown(),
		policy:   newHTMLPolicy(),
		bundles:  map[string]cacheEntry[*Bundle]{},
		pages:    map[string]cacheEntry[Page]{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dir returns the content root.
func (p *Provider) Dir() string { return p.dir }

// Bundle returns the structured content for lang. Sections missing from a
// locale are filled from the fallback locale.
func (p *Provider) Bundle(ctx context.Context, lang string) (*Bundle, error) {
	lang = normalizeLang(lang)
	p.mu.RLock()
	entry, ok := p.bundles[lang]
	p.mu.RUnlock()
	if ok && p.now().Before(entry.expires) {
		return entry.value, nil
	}

	b, err := p.loadBundle(ctx, lang)
	if err != nil {
		return nil, err
	}
	if p.ttl > 0 {
		p.mu.Lock()
		p.bundles[lang] = cacheEntry[*Bundle]{value: b, expires: p.now().Add(p.ttl)}
		p.mu.Unlock()
	}
	return b, nil
}

func (p *Provider) loadBundle(ctx context.Context, lang string) (*Bundle, error) {
	primary, err := p.readBundle(lang)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if lang == p.fallback {
		if primary == nil {
			return nil, fmt.Errorf("content: bundle %s: %w", lang, ErrNotFound)
		}
		return primary, nil
	}
	base, baseErr := p.readBundle(p.fallback)
	if baseErr != nil {
		if primary != nil {
			return primary, nil
		}
		return nil, fmt.Errorf("content: bundle %s: %w", lang, baseErr)
	}
	if primary == nil {
		requestctx.Logger(ctx).Debug("content bundle falls back", zap.String("lang", lang), zap.String("fallback", p.fallback))
		cp := *base
		cp.Lang = lang
		return &cp, nil
	}
	mergeBundle(primary, base)
	return primary, nil
}

func (p *Provider) readBundle(lang string) (*Bundle, error) {
	file := filepath.Join(p.dir, "data", lang+".yaml")
	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var b Bundle
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", file, err)
	}
	b.Lang = lang
	return &b, nil
}

// mergeBundle fills empty sections of dst from src.
func mergeBundle(dst, src *Bundle) {
	if dst.Clinic.Name == "" {
		dst.Clinic = src.Clinic
	}
	if len(dst.HeroSlides) == 0 {
		dst.HeroSlides = src.HeroSlides
	}
	if len(dst.Benefits) == 0 {
		dst.Benefits = src.Benefits
	}
	if len(dst.Process) == 0 {
		dst.Process = src.Process
	}
	if len(dst.Testimonials) == 0 {
		dst.Testimonials = src.Testimonials
	}
	if len(dst.FAQ) == 0 {
		dst.FAQ = src.FAQ
	}
	if len(dst.Pricing.Packages) == 0 {
		dst.Pricing = src.Pricing
	}
	if len(dst.Cases) == 0 {
		dst.Cases = src.Cases
	}
	if len(dst.Treatments) == 0 {
		dst.Treatments = src.Treatments
	}
	if len(dst.Cities) == 0 {
		dst.Cities = src.Cities
	}
	if dst.Promo.Title == "" {
		dst.Promo = src.Promo
	}
	if dst.CTA.Title == "" {
		dst.CTA = src.CTA
	}
}

// Page returns a markdown document of kind in lang, falling back to the
// fallback locale.
func (p *Provider) Page(ctx context.Context, kind, slug, lang string) (Page, error) {
	kind = sanitizeSlug(kind)
	slug = sanitizeSlug(slug)
	if kind == "" || slug == "" {
		return Page{}, ErrNotFound
	}
	lang = normalizeLang(lang)
	key := strings.Join([]string{kind, lang, slug}, "|")

	p.mu.RLock()
	entry, ok := p.pages[key]
	p.mu.RUnlock()
	if ok && p.now().Before(entry.expires) {
		return entry.value, nil
	}

	candidates := []string{lang}
	if lang != p.fallback {
		candidates = append(candidates, p.fallback)
	}
	for _, candidate := range candidates {
		page, err := p.readMarkdown(kind, slug, candidate)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			requestctx.Logger(ctx).Error("content page unreadable",
				zap.String("kind", kind), zap.String("slug", slug), zap.String("lang", candidate), zap.Error(err))
			return Page{}, err
		}
		if p.ttl > 0 {
			p.mu.Lock()
			p.pages[key] = cacheEntry[Page]{value: page, expires: p.now().Add(p.ttl)}
			p.mu.Unlock()
		}
		return page, nil
	}
	return Page{}, ErrNotFound
}

// Slugs lists the markdown documents of kind available in the fallback locale.
func (p *Provider) Slugs(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.dir, sanitizeSlug(kind), p.fallback))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".md"))
	}
	return out, nil
}

// Invalidate drops every cached entry.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bundles = map[string]cacheEntry[*Bundle]{}
	p.pages = map[string]cacheEntry[Page]{}
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

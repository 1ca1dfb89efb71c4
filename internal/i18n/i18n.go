package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle holds flat key/value translations per locale.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported map[string]struct{}
	tags      []language.Tag
	codes     []string
	matcher   language.Matcher
}

// Load reads <dir>/<locale>.json for every supported locale. Only the
// fallback file is mandatory.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	b := &Bundle{
		dict:      map[string]map[string]string{},
		fallback:  fallback,
		supported: map[string]struct{}{},
	}
	if len(supported) == 0 {
		supported = []string{fallback}
	}
	// the fallback leads so the matcher prefers it on ties
	ordered := append([]string{fallback}, supported...)
	for _, l := range ordered {
		if _, seen := b.supported[l]; seen {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", l, err)
		}
		b.supported[l] = struct{}{}
		b.tags = append(b.tags, tag)
		b.codes = append(b.codes, l)

		path := filepath.Join(dir, l+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.supported))
	for k := range b.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is one of the configured locales.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.supported[lang]
	return ok
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if v, ok := b.Lookup(lang, key); ok {
		return v
	}
	return key
}

// Tf formats the translation of key with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Lookup is T without the key fallback.
func (b *Bundle) Lookup(lang, key string) (string, bool) {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v, true
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Resolve chooses the best supported language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.codes) {
		return b.fallback
	}
	return b.codes[idx]
}

// MissingKeys lists, per locale, keys present in the fallback locale but
// absent from that locale. Locales without a file report every key.
func (b *Bundle) MissingKeys() map[string][]string {
	base := b.dict[b.fallback]
	out := map[string][]string{}
	for _, l := range b.codes {
		if l == b.fallback {
			continue
		}
		m := b.dict[l]
		var missing []string
		for k := range base {
			if _, ok := m[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			out[l] = missing
		}
	}
	return out
}

package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/format"
	"github.com/manuwestern/dionwebsite/internal/handlers"
	"github.com/manuwestern/dionwebsite/internal/i18n"
	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// views parses the .tmpl tree once, or on every render in dev mode.
type views struct {
	dir  string
	dev  bool
	i18n *i18n.Bundle

	mu    sync.RWMutex
	cache *template.Template
}

func newViews(dir string, dev bool, bundle *i18n.Bundle) *views {
	return &views{dir: dir, dev: dev, i18n: bundle}
}

func (v *views) load() error {
	t, err := v.parse()
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.cache = t
	v.mu.Unlock()
	return nil
}

func (v *views) current() (*template.Template, error) {
	if v.dev {
		return v.parse()
	}
	v.mu.RLock()
	t := v.cache
	v.mu.RUnlock()
	if t == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	return t, nil
}

func (v *views) parse() (*template.Template, error) {
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", v.dir)
	}

	var root *template.Template
	funcs := v.funcMap()
	// section renders a composed block through the template named after its kind.
	funcs["section"] = func(b handlers.SectionBlock) (template.HTML, error) {
		var buf bytes.Buffer
		if err := root.ExecuteTemplate(&buf, b.Kind.Template(), b); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil
	}
	var err error
	root, err = template.New("_root").Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (v *views) funcMap() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t":   v.i18n.T,
		"tf":  v.i18n.Tf,
		"price": func(amount int64, currency, lang string) string {
			return format.Price(amount, currency, lang)
		},
		"date": format.Date,
		"frag": func(lang string, view any) handlers.Fragment {
			return handlers.Fragment{Lang: lang, View: view}
		},
		"pct": func(f float64) string {
			return fmt.Sprintf("%.2f%%", f)
		},
		"add": func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}
}

// render executes the base layout with status.
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, data any) {
	a.execute(w, r, status, "base", data)
}

// renderFragment executes a single named template for htmx swaps.
func (a *app) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.execute(w, r, http.StatusOK, name, data)
}

func (a *app) execute(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := a.views.current()
	if err != nil {
		requestctx.Logger(r.Context()).Error("template parse", zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	// buffer so a failing template never leaves a half-written page
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		requestctx.Logger(r.Context()).Error("template exec", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderString executes name into a string, used for event stream payloads.
func (a *app) renderString(name string, data any) (string, error) {
	t, err := a.views.current()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

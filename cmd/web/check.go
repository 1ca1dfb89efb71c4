package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/i18n"
	"github.com/manuwestern/dionwebsite/internal/page"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

// checkContent prints every translation gap, content problem and layout
// error it finds. It fails when anything was reported.
func checkContent(ctx context.Context, cfg config.Config, out io.Writer) error {
	var problems int

	bundle, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.DefaultLocale, cfg.Site.Locales)
	if err != nil {
		fmt.Fprintf(out, "translations: %v\n", err)
		problems++
	} else {
		missing := bundle.MissingKeys()
		langs := make([]string, 0, len(missing))
		for l := range missing {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			for _, key := range missing[l] {
				fmt.Fprintf(out, "[%s] translation missing: %s\n", l, key)
				problems++
			}
		}
	}

	provider := content.NewProvider(cfg.Site.ContentDir, cfg.Site.DefaultLocale)
	for _, p := range provider.Audit(ctx, cfg.Site.Locales) {
		fmt.Fprintln(out, p.String())
		problems++
	}

	layouts, err := page.LoadLayouts(filepath.Join(cfg.Site.ContentDir, layoutsFile))
	if err != nil {
		fmt.Fprintf(out, "layouts: %v\n", err)
		problems++
	} else {
		fmt.Fprintf(out, "layouts: %s routes\n", humanize.Comma(int64(len(layouts.Routes()))))
	}

	if _, err := newViews(cfg.Site.TemplatesDir, false, bundle).parse(); err != nil {
		fmt.Fprintf(out, "templates: %v\n", err)
		problems++
	}

	if problems > 0 {
		return fmt.Errorf("check-content: %s problem(s) found", humanize.Comma(int64(problems)))
	}
	fmt.Fprintln(out, "content ok")
	return nil
}

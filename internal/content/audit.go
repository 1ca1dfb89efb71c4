package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Problem is one finding of Audit.
type Problem struct {
	Lang    string
	Subject string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("[%s] %s: %s", p.Lang, p.Subject, p.Message)
}

// Audit checks every locale for missing bundle files, empty sections and
// markdown documents that only exist in the fallback locale.
func (p *Provider) Audit(ctx context.Context, langs []string) []Problem {
	var problems []Problem
	for _, lang := range langs {
		lang = normalizeLang(lang)
		if _, err := p.readBundle(lang); errors.Is(err, ErrNotFound) {
			problems = append(problems, Problem{Lang: lang, Subject: "data/" + lang + ".yaml", Message: "bundle file missing, fallback locale used"})
		} else if err != nil {
			problems = append(problems, Problem{Lang: lang, Subject: "data/" + lang + ".yaml", Message: err.Error()})
			continue
		}

		b, err := p.loadBundle(ctx, lang)
		if err != nil {
			problems = append(problems, Problem{Lang: lang, Subject: "bundle", Message: err.Error()})
			continue
		}
		for _, s := range emptySections(b) {
			problems = append(problems, Problem{Lang: lang, Subject: s, Message: "section has no entries"})
		}
		for i, c := range b.Cases {
			if c.Before == "" || c.After == "" {
				problems = append(problems, Problem{Lang: lang, Subject: fmt.Sprintf("cases[%d]", i), Message: "before and after images are required"})
			}
		}

		for _, kind := range []string{KindPages, KindTreatments} {
			slugs, err := p.Slugs(kind)
			if err != nil {
				problems = append(problems, Problem{Lang: lang, Subject: kind, Message: err.Error()})
				continue
			}
			for _, slug := range slugs {
				if _, err := os.Stat(filepath.Join(p.dir, kind, lang, slug+".md")); err != nil {
					problems = append(problems, Problem{Lang: lang, Subject: kind + "/" + slug, Message: "not translated"})
				}
			}
		}
		for _, t := range b.Treatments {
			if _, err := p.Page(ctx, KindTreatments, t.Slug, lang); err != nil {
				problems = append(problems, Problem{Lang: lang, Subject: "treatments/" + t.Slug, Message: "treatment card has no detail page"})
			}
		}
	}
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Lang != problems[j].Lang {
			return problems[i].Lang < problems[j].Lang
		}
		return problems[i].Subject < problems[j].Subject
	})
	return problems
}

func emptySections(b *Bundle) []string {
	var out []string
	check := func(name string, n int) {
		if n == 0 {
			out = append(out, name)
		}
	}
	check("hero", len(b.HeroSlides))
	check("benefits", len(b.Benefits))
	check("process", len(b.Process))
	check("testimonials", len(b.Testimonials))
	check("faq", len(b.FAQ))
	check("pricing.packages", len(b.Pricing.Packages))
	check("cases", len(b.Cases))
	check("treatments", len(b.Treatments))
	if b.Clinic.Name == "" {
		out = append(out, "clinic")
	}
	return out
}

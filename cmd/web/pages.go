package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/analytics"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/handlers"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/nav"
	"github.com/manuwestern/dionwebsite/internal/page"
	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
	"github.com/manuwestern/dionwebsite/internal/seo"
)

// pageSpec describes one full page render.
type pageSpec struct {
	route string
	// title and description override the translated route defaults.
	title       string
	description string
	image       string
	leaf        string
	city        *content.City
	document    *content.Page
	status      int
	mobile      bool
	jsonld      []any
}

func (a *app) routePage(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.servePage(w, r, pageSpec{route: route})
	}
}

func (a *app) homePage(w http.ResponseWriter, r *http.Request) {
	a.servePage(w, r, pageSpec{route: "home"})
}

func (a *app) mobilePage(w http.ResponseWriter, r *http.Request) {
	a.servePage(w, r, pageSpec{route: "mobile", mobile: true})
}

func (a *app) pricesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	spec := pageSpec{route: "prices"}
	for _, pkg := range bundle.Pricing.Packages {
		spec.jsonld = append(spec.jsonld, seo.Offer(pkg.Name, pkg.Price, bundle.Pricing.Currency, seo.Absolute(a.cfg.Site.BaseURL, "/prices")))
	}
	a.servePage(w, r, spec)
}

func (a *app) treatmentPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	slug := chi.URLParam(r, "slug")
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	card, hasCard := bundle.TreatmentBySlug(slug)
	doc, err := a.content.Page(ctx, content.KindTreatments, slug, lang)
	switch {
	case errors.Is(err, content.ErrNotFound) && !hasCard:
		a.notFound(w, r)
		return
	case err != nil && !errors.Is(err, content.ErrNotFound):
		a.fail(w, r, err)
		return
	}

	spec := pageSpec{route: "treatment"}
	if err == nil {
		spec.document = &doc
		spec.title = doc.Title
		spec.description = doc.Description()
		spec.image = doc.SEO.OGImage
		if spec.image == "" {
			spec.image = doc.Image
		}
	}
	if hasCard {
		if spec.title == "" {
			spec.title = card.Title
		}
		if spec.description == "" {
			spec.description = card.Summary
		}
		if spec.image == "" {
			spec.image = card.Image
		}
	}
	spec.leaf = spec.title
	canonical := seo.Absolute(a.cfg.Site.BaseURL, r.URL.Path)
	spec.jsonld = append(spec.jsonld, seo.MedicalProcedure(spec.title, spec.description, canonical, seo.Absolute(a.cfg.Site.BaseURL, spec.image)))
	a.servePage(w, r, spec)
}

func (a *app) cityPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	city, ok := bundle.CityBySlug(chi.URLParam(r, "city"))
	if !ok {
		a.notFound(w, r)
		return
	}
	a.servePage(w, r, pageSpec{
		route:       "city",
		city:        &city,
		title:       city.HeroTitle,
		description: city.HeroSubtitle,
		leaf:        city.Name,
	})
}

func (a *app) legalPage(w http.ResponseWriter, r *http.Request) {
	doc, err := a.content.Page(r.Context(), content.KindPages, chi.URLParam(r, "slug"), mw.Lang(r))
	if errors.Is(err, content.ErrNotFound) {
		a.notFound(w, r)
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.servePage(w, r, pageSpec{
		route:       "legal",
		document:    &doc,
		title:       doc.Title,
		description: doc.Description(),
		leaf:        doc.Title,
	})
}

func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	a.servePage(w, r, pageSpec{route: "notfound", status: http.StatusNotFound})
}

// errorPage is the fallback body of the recovery boundary. It must not
// depend on content that might itself be failing.
func (a *app) errorPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := handlers.PageData{
		Title: a.i18n.T(lang, "error.title"),
		Lang:  lang,
		Path:  r.URL.Path,
		Nav:   nav.Build(r.URL.Path),
		Year:  time.Now().Year(),
	}
	vm.SEO.Title = vm.Title
	vm.SEO.Robots = "noindex"
	t, err := a.views.current()
	if err != nil {
		_, _ = w.Write([]byte("internal server error"))
		return
	}
	if err := t.ExecuteTemplate(w, "base", vm); err != nil {
		requestctx.Logger(r.Context()).Error("error page", zap.Error(err))
	}
}

// fail logs err and renders the error page with 500.
func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestctx.Logger(r.Context()).Error("page failed", zap.Error(err))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	a.errorPage(w, r)
}

func (a *app) servePage(w http.ResponseWriter, r *http.Request, spec pageSpec) {
	ctx := r.Context()
	lang := mw.Lang(r)
	sess := mw.GetSession(r)

	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	comp, err := a.layouts.Compose(ctx, spec.route, a.resolver(r, bundle, lang, spec.city))
	if errors.Is(err, page.ErrUnknownRoute) {
		// routes without sections still render their document
		comp = page.Composition{Route: spec.route}
	} else if err != nil {
		a.fail(w, r, err)
		return
	}

	path := r.URL.Path
	vm := handlers.PageData{
		Lang:        lang,
		Locales:     handlers.LocaleLinks(path, a.i18n.Supported(), lang),
		CSRFToken:   mw.CSRFToken(r),
		Path:        path,
		Nav:         nav.Build(path),
		FooterNav:   nav.BuildFooter(path),
		Breadcrumbs: nav.Breadcrumbs(path, spec.leaf),
		Clinic:      bundle.Clinic,
		Year:        time.Now().Year(),
		Sections:    handlers.Blocks(comp.Sections, lang),
		Document:    spec.document,
		Promo:       a.promo.Build(bundle.Promo, path, sess.PromoDismissed),
		Mobile:      spec.mobile,
	}
	vm.Title = spec.title
	if vm.Title == "" {
		vm.Title = a.i18n.T(lang, "page."+spec.route+".title")
	}
	description := spec.description
	if description == "" {
		description = a.i18n.T(lang, "page."+spec.route+".description")
	}
	vm.SEO = a.buildSEO(r, lang, vm.Title, description, spec.image, bundle)
	if spec.status >= http.StatusBadRequest {
		vm.SEO.Robots = "noindex"
	}
	for _, ld := range spec.jsonld {
		vm.SEO.AddJSONLD(ld)
	}
	if comp.Has(page.KindFAQ) {
		qa := make([]seo.QA, 0, len(bundle.FAQ))
		for _, f := range bundle.FAQ {
			qa = append(qa, seo.QA{Question: f.Question, Answer: f.Answer})
		}
		vm.SEO.AddJSONLD(seo.FAQPage(qa))
	}
	if len(vm.Breadcrumbs) > 1 {
		items := make([]seo.BreadcrumbItem, 0, len(vm.Breadcrumbs))
		for _, c := range vm.Breadcrumbs {
			name := c.Label
			if c.LabelKey != "" {
				name = a.i18n.T(lang, c.LabelKey)
			}
			items = append(items, seo.BreadcrumbItem{Name: name, Item: seo.Absolute(a.cfg.Site.BaseURL, c.Href)})
		}
		vm.SEO.AddJSONLD(seo.BreadcrumbList(items))
	}

	analytics.Push(ctx, "page_view", map[string]any{
		"page_route": spec.route,
		"language":   lang,
	})
	if vm.Promo != nil {
		analytics.Push(ctx, "promo_eligible", map[string]any{"page_route": spec.route})
	}
	vm.Analytics = handlers.NewAnalytics(a.analytics, analytics.FromContext(ctx))

	status := spec.status
	if status == 0 {
		status = http.StatusOK
	}
	a.render(w, r, status, vm)
}

func (a *app) buildSEO(r *http.Request, lang, title, description, image string, bundle *content.Bundle) handlers.SEOData {
	base := a.cfg.Site.BaseURL
	brand := bundle.Clinic.Name
	if brand == "" {
		brand = a.i18n.T(lang, "brand.name")
	}
	var s handlers.SEOData
	s.Title = title
	if brand != "" && title != brand {
		s.Title = title + " | " + brand
	}
	s.Description = seo.Truncate(description, 160)
	s.Canonical = seo.LocalizedURL(base, r.URL.Path, lang, a.i18n.Fallback())
	s.Robots = "index, follow"
	s.Alternates = seo.Alternates(base, r.URL.Path, a.i18n.Supported(), a.i18n.Fallback())
	if image == "" && len(bundle.HeroSlides) > 0 {
		image = bundle.HeroSlides[0].Image
	}
	s.OG = seo.OpenGraph{
		Title:       s.Title,
		Description: s.Description,
		Image:       seo.Absolute(base, image),
		Type:        "website",
		URL:         s.Canonical,
		Locale:      seo.OGLocale(lang),
		SiteName:    brand,
	}
	s.Twitter = seo.Twitter{Card: "summary_large_image", Image: s.OG.Image}

	c := bundle.Clinic
	s.AddJSONLD(seo.MedicalClinic(seo.Clinic{
		Name:         c.Name,
		URL:          base,
		Logo:         seo.Absolute(base, c.Logo),
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      seo.Address{Street: c.Street, PostalCode: c.PostalCode, City: c.City, Country: c.Country},
		Latitude:     a.cfg.Map.Latitude,
		Longitude:    a.cfg.Map.Longitude,
		OpeningHours: c.OpeningHours,
		SameAs:       c.SameAs,
	}))
	if r.URL.Path == "/" {
		s.AddJSONLD(seo.WebSite(brand, base, lang))
	}
	return s
}

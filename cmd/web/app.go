package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/analytics"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/device"
	"github.com/manuwestern/dionwebsite/internal/forms"
	"github.com/manuwestern/dionwebsite/internal/i18n"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/page"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
	"github.com/manuwestern/dionwebsite/internal/platform/observability"
	"github.com/manuwestern/dionwebsite/internal/promo"
)

const layoutsFile = "layouts.yaml"

// app bundles the long-lived dependencies shared by handlers.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	i18n      *i18n.Bundle
	content   *content.Provider
	layouts   page.Layouts
	forms     *forms.Registry
	promo     promo.Policy
	analytics analytics.Config
	device    device.Policy
	views     *views

	// draining is closed when the server shuts down so open streams end.
	draining  chan struct{}
	drainOnce sync.Once
}

type appOption func(*app)

// withSender replaces the webhook client, used by tests.
func withSender(s forms.Sender, opts ...forms.RegistryOption) appOption {
	return func(a *app) {
		a.forms = forms.NewRegistry(s, opts...)
	}
}

func newApp(cfg config.Config, logger *zap.Logger, opts ...appOption) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.DefaultLocale, cfg.Site.Locales)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	layouts, err := page.LoadLayouts(filepath.Join(cfg.Site.ContentDir, layoutsFile))
	if err != nil {
		return nil, err
	}
	if ephemeral := mw.ConfigureSession(cfg.Session.SigningKey, cfg.Session.Secure); ephemeral {
		logger.Warn("session: using ephemeral signing key; set CLINIC_WEB_SESSION_SIGNING_KEY")
	}
	webhook := forms.NewWebhookClient(cfg.Webhook.URL, cfg.Webhook.Timeout, cfg.Webhook.Retries)
	if cfg.Webhook.URL == "" {
		logger.Warn("forms: webhook URL not configured; submissions will fail")
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		i18n:    bundle,
		content: content.NewProvider(cfg.Site.ContentDir, cfg.Site.DefaultLocale, content.WithCacheTTL(cfg.Site.ContentCacheTTL)),
		layouts: layouts,
		forms: forms.NewRegistry(webhook,
			forms.WithIdleTTL(cfg.Webhook.IdleTTL),
			forms.WithFormOptions(forms.WithResetDelay(cfg.Webhook.ResetDelay)),
		),
		promo:     promo.FromConfig(cfg.Promo),
		analytics: analytics.FromConfig(cfg.Analytics),
		device: device.Policy{
			MobilePath: cfg.Device.MobilePath,
			Breakpoint: cfg.Device.Breakpoint,
			Excluded:   cfg.Device.Excluded,
		},
		draining: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.views = newViews(cfg.Site.TemplatesDir, cfg.Site.DevMode, bundle)
	if !cfg.Site.DevMode {
		// parse once in production so template errors fail startup
		if err := a.views.load(); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
	}
	return a, nil
}

// drain ends long-lived streams. Safe to call more than once.
func (a *app) drain() {
	a.drainOnce.Do(func() { close(a.draining) })
}

// Close cancels pending form timers.
func (a *app) Close() {
	a.forms.Close()
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.TraceMiddleware())
	r.Use(observability.InjectLoggerMiddleware(a.logger))
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(observability.RecoveryMiddleware(a.errorPage))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", mw.AssetsWithCache("/assets", filepath.Join(a.cfg.Site.PublicDir, "assets")))

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(mw.Session)
		r.Use(mw.Locale(a.i18n))
		r.Use(mw.CSRF)
		r.Use(analytics.Middleware)

		// event streams outlive the request timeout
		r.Get("/stream/carousel/hero", a.heroStream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(a.cfg.Server.RequestTimeout))
			r.Use(mw.DeviceGuard(a.device))

			r.Get("/", a.homePage)
			r.Get("/treatments", a.routePage("treatments"))
			r.Get("/treatments/{slug}", a.treatmentPage)
			r.Get("/prices", a.pricesPage)
			r.Get("/before-after", a.routePage("before-after"))
			r.Get("/contact", a.routePage("contact"))
			r.Get("/appointment", a.routePage("appointment"))
			r.Get("/city/{city}", a.cityPage)
			r.Get(a.device.MobilePath, a.mobilePage)
			r.Get("/legal/{slug}", a.legalPage)

			r.Get("/fragments/carousel/{name}", a.carouselFragment)
			r.Get("/fragments/before-after", a.beforeAfterFragment)
			r.Get("/forms/{kind}", a.formFragment)
			r.Post("/forms/{kind}", a.submitForm)
			r.Post("/promo/dismiss", a.dismissPromo)
		})
	})

	notFound := chi.Chain(mw.HTMX, mw.Session, mw.Locale(a.i18n), analytics.Middleware).HandlerFunc(a.notFound)
	r.NotFound(notFound.ServeHTTP)
	return r
}

// intervalFor returns the autoplay period of a carousel instance.
func (a *app) intervalFor(name string) time.Duration {
	switch name {
	case "hero":
		return a.cfg.Carousel.HeroInterval
	case "testimonials":
		return a.cfg.Carousel.ReviewInterval
	case "faq":
		return a.cfg.Carousel.FAQInterval
	default:
		return a.cfg.Carousel.CaseInterval
	}
}

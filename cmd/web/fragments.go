package main

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/analytics"
	"github.com/manuwestern/dionwebsite/internal/carousel"
	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/handlers"
	mw "github.com/manuwestern/dionwebsite/internal/middleware"
	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
	"github.com/manuwestern/dionwebsite/internal/slider"
)

// carouselFragment re-renders a carousel after a manual move or autoplay tick.
// The state travels in the query: i (index), manual (control latch), action.
func (a *app) carouselFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	name := chi.URLParam(r, "name")
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var count int
	policy := carousel.AutoplayUntilInteraction
	switch name {
	case handlers.CarouselHero:
		count, policy = len(bundle.HeroSlides), carousel.AutoplayAlways
	case handlers.CarouselTestimonials:
		count = len(bundle.Testimonials)
	case handlers.CarouselFAQ:
		count = len(bundle.FAQ)
	default:
		http.NotFound(w, r)
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	q := r.URL.Query()
	c, err := carousel.New(count, policy,
		carousel.WithIndex(queryInt(q.Get("i"), 0)),
		carousel.WithControlled(q.Get("manual") == "1"),
	)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	action := q.Get("action")
	switch action {
	case "next":
		c.Next()
	case "prev":
		c.Prev()
	case "goto":
		c.GoTo(queryInt(q.Get("i"), 0))
	case "tick":
		c.Tick()
	}
	if action == "next" || action == "prev" || action == "goto" {
		analytics.Push(ctx, "carousel_interaction", map[string]any{"carousel": name, "action": action, "index": c.Index()})
		mw.HXTrigger(w, analytics.TriggerHeader(analytics.FromContext(ctx).Events()))
	}

	interval := a.intervalFor(name)
	var view any
	switch name {
	case handlers.CarouselHero:
		var city *content.City
		if slug := q.Get("city"); slug != "" {
			if found, ok := bundle.CityBySlug(slug); ok {
				city = &found
			}
		}
		view = handlers.BuildHero(bundle.HeroSlides, city, c, interval)
	case handlers.CarouselTestimonials:
		view = handlers.BuildTestimonials(bundle.Testimonials, c, interval)
	case handlers.CarouselFAQ:
		view = handlers.BuildFAQ(bundle.FAQ, c, interval)
	}
	a.renderFragment(w, r, "frag-carousel-"+name, handlers.Fragment{Lang: lang, View: view})
}

// beforeAfterFragment applies one slider interaction. Query: case, pos,
// manual and action=select|next|prev|drag|control|tick with to, x, left,
// width or value as the action needs.
func (a *app) beforeAfterFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(bundle.Cases) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	q := r.URL.Query()
	action := q.Get("action")
	// any interaction other than an autoplay tick hands control to the visitor
	manual := q.Get("manual") == "1" || (action != "" && action != "tick")
	s, err := slider.Restore(len(bundle.Cases), queryInt(q.Get("case"), 0), queryFloat(q.Get("pos"), slider.DefaultPosition), manual)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	switch action {
	case "select":
		s.SelectCase(queryInt(q.Get("to"), s.Case()))
	case "next":
		s.NextCase()
	case "prev":
		s.PrevCase()
	case "drag":
		s.Drag(queryFloat(q.Get("x"), math.NaN()), queryFloat(q.Get("left"), math.NaN()), queryFloat(q.Get("width"), 0))
	case "control":
		s.SetViaControl(queryFloat(q.Get("value"), math.NaN()))
	case "tick":
		s.Tick()
	}
	if action == "select" || action == "next" || action == "prev" {
		analytics.Push(ctx, "before_after_case", map[string]any{"case": bundle.Cases[s.Case()].ID})
		mw.HXTrigger(w, analytics.TriggerHeader(analytics.FromContext(ctx).Events()))
	}
	view := handlers.BuildSlider(bundle.Cases, s, a.cfg.Carousel.CaseInterval)
	a.renderFragment(w, r, "frag-beforeafter", handlers.Fragment{Lang: lang, View: view})
}

// heroStream pushes hero slide changes as server-sent events. The autoplay
// timer belongs to this connection and stops when the client goes away.
func (a *app) heroStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(r)
	logger := requestctx.Logger(ctx)
	bundle, err := a.content.Bundle(ctx, lang)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(bundle.HeroSlides) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	q := r.URL.Query()
	var city *content.City
	if found, ok := bundle.CityBySlug(q.Get("city")); ok {
		city = &found
	}
	c, err := carousel.New(len(bundle.HeroSlides), carousel.AutoplayAlways, carousel.WithIndex(queryInt(q.Get("i"), 0)))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	// streams are long-lived; lift the server write deadline
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.Warn("hero stream: flush unsupported", zap.Error(err))
		return
	}

	advances := make(chan int)
	quit := make(chan struct{})
	interval := a.cfg.Carousel.HeroInterval
	if err := c.Autoplay(interval, func(idx int) {
		select {
		case advances <- idx:
		case <-quit:
		case <-ctx.Done():
		case <-a.draining:
		}
	}); err != nil {
		logger.Error("hero stream: autoplay", zap.Error(err))
		return
	}
	defer c.Stop()
	defer close(quit)

	logger.Debug("hero stream opened")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("hero stream closed by client")
			return
		case <-a.draining:
			logger.Debug("hero stream closed for shutdown")
			return
		case <-advances:
			view := handlers.BuildHero(bundle.HeroSlides, city, c, interval)
			html, err := a.renderString("frag-hero-slide", handlers.Fragment{Lang: lang, View: view})
			if err != nil {
				logger.Error("hero stream: render", zap.Error(err))
				return
			}
			if err := writeEvent(w, "slide", html); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// writeEvent writes one SSE event; multi-line payloads become several data lines.
func writeEvent(w http.ResponseWriter, event, data string) error {
	var sb strings.Builder
	sb.WriteString("event: ")
	sb.WriteString(event)
	sb.WriteByte('\n')
	for _, line := range strings.Split(strings.TrimRight(data, "\n"), "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	_, err := fmt.Fprint(w, sb.String())
	return err
}

// dismissPromo latches the popup as dismissed for the session.
func (a *app) dismissPromo(w http.ResponseWriter, r *http.Request) {
	s := mw.GetSession(r)
	if !s.PromoDismissed {
		s.PromoDismissed = true
		s.MarkDirty()
	}
	analytics.Push(r.Context(), "promo_dismiss", nil)
	mw.HXTrigger(w, analytics.TriggerHeader(analytics.FromContext(r.Context()).Events()))
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, safeReturn(r), http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func queryInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}

// safeReturn picks a same-site path to send non-htmx posts back to.
func safeReturn(r *http.Request) string {
	if p := r.PostFormValue("return"); strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		return p
	}
	return "/"
}
